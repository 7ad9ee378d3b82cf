package vfptrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vfptrap/internal/trace"
)

// defaultFilteredSubstrings mirrors spec.md §4.5/§6: the bracketed
// pseudo-mapping catch-all, the five specific kernel pseudo-mappings
// (redundant with the catch-all but kept for parity with the
// original's explicit list), libm, and a placeholder for this
// engine's own external-engine shared libraries (see SPEC_FULL.md §7
// — this reimplementation has no Keystone/Capstone equivalent to
// name, so the slot is kept but inert).
var defaultFilteredSubstrings = []string{
	"[",
	"[stack]",
	"[vvar]",
	"[sigpage]",
	"[vdso]",
	"[vectors]",
	"libm-2.31.so",
	"libvfptrap-external.so",
}

// Options configures an Engine's non-structural tunables.
type Options struct {
	// FilteredSubstrings overrides defaultFilteredSubstrings when
	// non-nil.
	FilteredSubstrings []string

	// ContinueOnPlacementFailure selects the alternative policy
	// spec.md §7 calls out for trampoline placement failure: skip the
	// single site and keep scanning, rather than aborting the whole
	// run. Default false reproduces the original engine's behavior
	// (terminate). See DESIGN.md.
	ContinueOnPlacementFailure bool
}

// Engine is the Region Scanner: the top-level driver that enumerates
// mappings, narrows each to its executable sections, and asks the
// Classifier/Factory/Installer to patch whatever it recognises.
type Engine struct {
	Mappings   MappingSource
	FileMeta   FileMetaSource
	Classifier Classifier
	Factory    *Factory
	Installer  *Installer
	Memory     MemoryReader

	filtered []string
	opts     Options

	writable map[uintptr]bool
}

// New constructs an Engine. All six collaborators are required; a
// nil one is a caller error reported through ErrEngineInit.
func New(mappings MappingSource, filemeta FileMetaSource, classifier Classifier, factory *Factory, installer *Installer, memory MemoryReader, opts Options) (*Engine, error) {
	if mappings == nil || filemeta == nil || classifier == nil || factory == nil || installer == nil || memory == nil {
		return nil, fmt.Errorf("%w: nil collaborator", ErrEngineInit)
	}
	filtered := opts.FilteredSubstrings
	if filtered == nil {
		filtered = defaultFilteredSubstrings
	}
	return &Engine{
		Mappings:   mappings,
		FileMeta:   filemeta,
		Classifier: classifier,
		Factory:    factory,
		Installer:  installer,
		Memory:     memory,
		filtered:   filtered,
		opts:       opts,
		writable:   make(map[uintptr]bool),
	}, nil
}

// Run scans every enumerated mapping, in order, and returns the number
// of probes installed. It stops at the first fatal error, per the
// constructor-time execution model: there is no recovery surface once
// the engine has started.
func (e *Engine) Run(ctx context.Context) (int, error) {
	mappings, err := e.Mappings.Mappings(ctx)
	if err != nil {
		return 0, fmt.Errorf("vfptrap: reading mappings: %w", err)
	}

	installed := 0
	for _, m := range mappings {
		n, err := e.scanMapping(ctx, m)
		installed += n
		if err != nil {
			return installed, err
		}
	}
	return installed, nil
}

func (e *Engine) scanMapping(ctx context.Context, m Mapping) (int, error) {
	for _, sub := range e.filtered {
		if strings.Contains(m.Rest, sub) {
			trace.Debugf("skip %q: filtered substring %q", m.Rest, sub)
			return 0, nil
		}
	}

	meta, ok, err := e.FileMeta.Lookup(ctx, m.Start, m.Rest)
	if err != nil {
		return 0, fmt.Errorf("vfptrap: file metadata for %q: %w", m.Rest, err)
	}
	if !ok {
		trace.Debugf("skip %q: no file metadata", m.Rest)
		return 0, nil
	}
	if !m.Exec {
		trace.Debugf("skip %q: not executable", m.Rest)
		return 0, nil
	}

	fileLow := uint64(m.Start - meta.LoadBias)
	fileHigh := uint64(m.End - meta.LoadBias)
	sectionsFrom, sectionsTo, ok := sectionBounds(fileLow, fileHigh, meta.Sections)
	if !ok {
		trace.Debugf("skip %q: no executable sections in range", m.Rest)
		return 0, nil
	}

	start := meta.LoadBias + uintptr(sectionsFrom)
	end := meta.LoadBias + uintptr(sectionsTo)
	if !(m.Start <= start && start <= end && end <= m.End) {
		return 0, fmt.Errorf("vfptrap: section bounds [%#x,%#x) outside mapping [%#x,%#x) for %q",
			start, end, m.Start, m.End, m.Rest)
	}

	if word, ok := e.Memory.ReadWord(start); ok && isELFMagic(word) {
		skip := programHeaderEnd(meta)
		start += uintptr(skip)
		trace.Debugf("%q: skipping ELF header + program headers, %d bytes", m.Rest, skip)
	}

	return e.walk(m, start, end)
}

func (e *Engine) walk(m Mapping, start, end uintptr) (int, error) {
	installed := 0
	for p := start; p+4 <= end; p += 2 {
		word, ok := e.Memory.ReadWord(p)
		if !ok {
			continue
		}
		desc, ok := e.Classifier.Classify(word)
		if !ok {
			continue
		}

		tramp, err := e.Factory.Generate(p, desc)
		if err != nil {
			if errors.Is(err, ErrNoTrampolineSpace) && e.opts.ContinueOnPlacementFailure {
				trace.Debugf("skip %#x: %v", p, err)
				continue
			}
			return installed, fmt.Errorf("vfptrap: generating trampoline at %#x: %w", p, err)
		}

		if !e.writable[m.Start] {
			if err := e.Installer.Mem.EnsureWritable(m.Start, m.Len()); err != nil {
				return installed, fmt.Errorf("vfptrap: raising %q writable: %w", m.Rest, err)
			}
			e.writable[m.Start] = true
		}

		if err := e.Installer.Install(p, tramp); err != nil {
			return installed, fmt.Errorf("vfptrap: installing probe at %#x: %w", p, err)
		}
		installed++
		trace.Debugf("installed probe at %#x -> trampoline %#x", p, tramp)
	}
	return installed, nil
}

func isELFMagic(word [4]byte) bool {
	return word[0] == 0x7F && word[1] == 'E' && word[2] == 'L' && word[3] == 'F'
}
