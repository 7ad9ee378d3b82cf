package vfptrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleBranchSelfLoop(t *testing.T) {
	// The skeleton's return-slot placeholder is `b #0`, i.e. a branch
	// whose target is the instruction's own address: word 0xEAFFFFFE.
	got, err := AssembleBranch(0)
	require.NoError(t, err)
	require.Equal(t, [4]byte{0xFE, 0xFF, 0xFF, 0xEA}, got, "self-loop branch encoding")
}

func TestAssembleBranchRoundTrip(t *testing.T) {
	for _, disp := range []int32{4, -4, 1024, -1024, 1 << 20, -(1 << 20)} {
		word, err := AssembleBranch(disp)
		require.NoError(t, err, "displacement %d", disp)

		enc := uint32(word[0]) | uint32(word[1])<<8 | uint32(word[2])<<16 | uint32(word[3])<<24
		imm24 := int32(enc & 0x00FFFFFF)
		if imm24&0x00800000 != 0 {
			imm24 |= ^int32(0x00FFFFFF) // sign extend
		}
		decoded := imm24*4 + 8
		require.Equal(t, disp, decoded, "round trip for displacement %d", disp)
	}
}

func TestAssembleBranchRejectsMisaligned(t *testing.T) {
	_, err := AssembleBranch(3)
	require.Error(t, err)
}

func TestAssembleBranchRejectsOutOfRange(t *testing.T) {
	_, err := AssembleBranch(int24Max * 4 * 4)
	require.Error(t, err)
}

func TestAssembleMovW(t *testing.T) {
	// Matches the skeleton's placeholder movw r5, #0xdead.
	got, err := AssembleMovW(5, 0xDEAD)
	require.NoError(t, err)
	require.Equal(t, [4]byte{0xAD, 0x5E, 0x0D, 0xE3}, got)
}

func TestAssembleMovWRoundTrip(t *testing.T) {
	for reg := uint8(0); reg < 16; reg++ {
		for _, imm := range []uint16{0, 1, 0xFFFF, 0x1234, 0xDEAD} {
			word, err := AssembleMovW(reg, imm)
			require.NoError(t, err)

			enc := uint32(word[0]) | uint32(word[1])<<8 | uint32(word[2])<<16 | uint32(word[3])<<24
			gotReg := uint8((enc >> 12) & 0xF)
			gotImm := uint16(((enc>>16)&0xF)<<12 | (enc & 0xFFF))
			require.Equal(t, reg, gotReg)
			require.Equal(t, imm, gotImm)
		}
	}
}

func TestAssembleMovWRejectsBadRegister(t *testing.T) {
	_, err := AssembleMovW(16, 0)
	require.Error(t, err)
}

type fakeWriter struct {
	writable map[uintptr]bool
	mem      map[uintptr][4]byte
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{writable: make(map[uintptr]bool), mem: make(map[uintptr][4]byte)}
}

func (w *fakeWriter) EnsureWritable(addr uintptr, length int) error {
	w.writable[addr] = true
	return nil
}

func (w *fakeWriter) Write(addr uintptr, data []byte) error {
	var b [4]byte
	copy(b[:], data)
	w.mem[addr] = b
	return nil
}

func TestClobberEnsuresWritableFirst(t *testing.T) {
	w := newFakeWriter()
	word := [4]byte{1, 2, 3, 4}
	require.NoError(t, Clobber(w, 0x1000, word))
	require.True(t, w.writable[0x1000])
	require.Equal(t, word, w.mem[0x1000])
}
