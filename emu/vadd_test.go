package emu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVAddF32(t *testing.T) {
	bank := NewBank()
	bank.Set(0, math.Float32bits(1.5))
	bank.Set(1, math.Float32bits(2.25))

	VAddF32(bank, 2, 0, 1)

	require.Equal(t, float32(3.75), math.Float32frombits(bank.Get(2)))
}

func TestNewBankIsZeroed(t *testing.T) {
	bank := NewBank()
	for i := uint8(0); i < NumRegisters; i++ {
		require.Equal(t, uint32(0), bank.Get(i))
	}
}
