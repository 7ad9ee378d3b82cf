package emu

import "math"

// VAddF32 is the single emulation routine this engine ships: 32-bit
// single-precision float addition, Sd = Sn + Sm, against the shared
// Bank. It is the contract side of the trampoline/routine boundary
// spec.md keeps out of scope — the trampoline passes register indices
// in r0..r2, and whatever bridges that call to a Go function
// following Go's own calling convention is a constructor-time wiring
// detail, not this routine's concern.
func VAddF32(bank *Bank, sd, sn, sm uint8) {
	a := math.Float32frombits(bank.Get(sn))
	b := math.Float32frombits(bank.Get(sm))
	bank.Set(sd, math.Float32bits(a+b))
}
