package vfptrap

import "golang.org/x/arch/arm/armasm"

// OpcodeKind names an instruction shape the engine knows how to
// instrument. There is exactly one non-Unknown kind today, matching
// the single emulation routine the engine ships; the type exists so
// the Trampoline Factory's dispatch table (see Routine) can grow
// without changing the Classifier's contract.
type OpcodeKind int

const (
	Unknown OpcodeKind = iota
	VAddF32
)

// Descriptor is what the Classifier hands the rest of the engine: an
// opcode kind plus the single-precision operand register indices
// (0..31, i.e. S0..S31 renumbered from zero).
type Descriptor struct {
	Kind   OpcodeKind
	Sd, Sn, Sm uint8
}

// Classifier inspects a 4-byte candidate instruction word and reports
// whether it is one the engine handles.
type Classifier interface {
	Classify(word [4]byte) (Descriptor, bool)
}

// ArmClassifier backs Classifier with golang.org/x/arch/arm/armasm,
// hard-wired per the proof-of-concept scope to accept only
// `vadd.f32 s0, s0, s1`: opcode VADD, condition always, operands
// exactly (S0, S0, S1).
type ArmClassifier struct{}

// Classify implements Classifier.
func (ArmClassifier) Classify(word [4]byte) (Descriptor, bool) {
	inst, err := armasm.Decode(word[:], armasm.ModeARM)
	if err != nil {
		return Descriptor{}, false
	}
	if inst.Op != armasm.VADD_F32 {
		return Descriptor{}, false
	}

	sd, ok := singlePrecisionIndex(inst.Args[0])
	if !ok {
		return Descriptor{}, false
	}
	sn, ok := singlePrecisionIndex(inst.Args[1])
	if !ok {
		return Descriptor{}, false
	}
	sm, ok := singlePrecisionIndex(inst.Args[2])
	if !ok {
		return Descriptor{}, false
	}

	// Hard-wired guard: only the single operand shape wired to the
	// emulation routine is accepted.
	if sd != 0 || sn != 0 || sm != 1 {
		return Descriptor{}, false
	}

	return Descriptor{Kind: VAddF32, Sd: sd, Sn: sn, Sm: sm}, true
}

// singlePrecisionIndex extracts a 0..31 single-precision register
// index from an armasm.Arg, rejecting anything outside S0..S31.
func singlePrecisionIndex(arg armasm.Arg) (uint8, bool) {
	reg, ok := arg.(armasm.Reg)
	if !ok {
		return 0, false
	}
	if reg < armasm.S0 || reg > armasm.S31 {
		return 0, false
	}
	return uint8(reg - armasm.S0), true
}
