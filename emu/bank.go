// Package emu holds the software-maintained floating-point register
// bank and the emulation routines that read and write it. These are
// the "external collaborator" the instrumentation engine calls into
// through a trampoline; the engine only needs a routine's address and
// argument count (see vfptrap.Routine), not its internals.
package emu

// NumRegisters matches the original engine's register file size: 32
// usable single-precision slots (S0..S31) plus a further 32 reserved
// and always zero.
const NumRegisters = 64

// Bank is the process-wide single-precision register file. Bank is
// not safe for concurrent use; the engine's single-threaded
// constructor-time execution model is what makes that acceptable.
type Bank struct {
	regs [NumRegisters]uint32
}

// NewBank returns a zeroed Bank. The original engine zeroes its
// register file explicitly in emulator_init() rather than relying on
// static zero-initialization, treating it as a visible constructor
// step; NewBank mirrors that intent even though a zero-value Bank{}
// would already be zero.
func NewBank() *Bank {
	b := &Bank{}
	for i := range b.regs {
		b.regs[i] = 0
	}
	return b
}

// Get returns the raw 32-bit contents of register index idx.
func (b *Bank) Get(idx uint8) uint32 {
	return b.regs[idx]
}

// Set stores the raw 32-bit contents v into register index idx.
func (b *Bank) Set(idx uint8, v uint32) {
	b.regs[idx] = v
}
