package vfptrap

import "fmt"

// int24Min and int24Max bound the A32 branch instruction's signed
// imm24 field before the implicit ×4 scale, i.e. the raw field value,
// not the byte displacement it encodes.
const (
	int24Min = -(1 << 23)
	int24Max = (1 << 23) - 1
)

// Writer is the destination side of a 4-byte code patch: raise the
// containing page to writable, then store. The Probe Installer and
// Clobber share it so both the live-process implementation and a
// fake for tests only need to satisfy one small interface.
type Writer interface {
	EnsureWritable(addr uintptr, length int) error
	Write(addr uintptr, data []byte) error
}

// AssembleBranch encodes an unconditional A32 `b` instruction whose
// PC-relative target is `site + displacement` (PC-relative meaning
// ARM's convention of PC = instruction address + 8). displacement
// must be a multiple of 4 and must decode to an imm24 field fitting
// the signed 24-bit range, i.e. the branch must reach within roughly
// ±32MiB of the instruction.
func AssembleBranch(displacement int32) ([4]byte, error) {
	if displacement%4 != 0 {
		return [4]byte{}, fmt.Errorf("vfptrap: branch displacement %d is not 4-byte aligned", displacement)
	}
	offset := displacement - 8
	imm24 := offset >> 2
	if imm24 < int24Min || imm24 > int24Max {
		return [4]byte{}, fmt.Errorf("vfptrap: branch displacement %d out of ±24-bit range", displacement)
	}
	word := uint32(0xEA000000) | (uint32(imm24) & 0x00FFFFFF)
	return wordLE(word), nil
}

// AssembleMovW encodes `movw R<reg>, #imm16`. reg must be in [0,15].
func AssembleMovW(reg uint8, imm16 uint16) ([4]byte, error) {
	if reg > 15 {
		return [4]byte{}, fmt.Errorf("vfptrap: movw register %d out of range", reg)
	}
	imm4 := uint32(imm16>>12) & 0xF
	imm12 := uint32(imm16) & 0xFFF
	word := uint32(0xE3000000) | (imm4 << 16) | (uint32(reg) << 12) | imm12
	return wordLE(word), nil
}

// Clobber overwrites the 4 bytes at dst with word, first ensuring the
// containing page is writable.
func Clobber(w Writer, dst uintptr, word [4]byte) error {
	if err := w.EnsureWritable(dst, 4); err != nil {
		return err
	}
	return w.Write(dst, word[:])
}

func wordLE(word uint32) [4]byte {
	return [4]byte{
		byte(word),
		byte(word >> 8),
		byte(word >> 16),
		byte(word >> 24),
	}
}
