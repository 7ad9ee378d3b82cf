package vfptrap

import (
	"reflect"

	"vfptrap/emu"
)

// DefaultRoutines builds the Trampoline Factory's dispatch table bound
// to bank: one entry, VAddF32, matching the engine's single
// emulation routine. Each entry's address is taken from a closure
// over bank via reflect.ValueOf(fn).Pointer(), the idiomatic Go
// expression of spec.md §9's suggestion to use "addresses-of-closures
// on its executable heap" in place of a free function symbol.
func DefaultRoutines(bank *emu.Bank) map[OpcodeKind]Routine {
	vadd := func(sd, sn, sm uint8) {
		emu.VAddF32(bank, sd, sn, sm)
	}
	return map[OpcodeKind]Routine{
		VAddF32: {
			Addr:     reflect.ValueOf(vadd).Pointer(),
			ArgCount: 3,
		},
	}
}
