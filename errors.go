package vfptrap

import "errors"

// Sentinel errors a caller can match with errors.Is, corresponding to
// the fatal error kinds an instrumentation pass can raise. A
// classifier miss is not among them: it is local recovery, not an
// error value.
var (
	// ErrNoTrampolineSpace is returned when no page within a probe
	// site's ±24-bit branch reach could be mapped.
	ErrNoTrampolineSpace = errors.New("vfptrap: no trampoline space within branch reach")

	// ErrProtectionDenied is returned when mprotect refuses to raise
	// a mapping to writable.
	ErrProtectionDenied = errors.New("vfptrap: mprotect denied write permission")

	// ErrEngineInit is returned by New when any required collaborator
	// (mapping source, file metadata source, classifier, factory,
	// installer, memory reader) is nil.
	ErrEngineInit = errors.New("vfptrap: engine initialization failed")

	// ErrUnhandledOpcode is returned by the Trampoline Factory when a
	// descriptor names an opcode kind with no registered routine.
	ErrUnhandledOpcode = errors.New("vfptrap: no emulation routine for opcode")
)
