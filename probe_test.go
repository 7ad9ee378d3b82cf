package vfptrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstallerWritesBothBranches(t *testing.T) {
	w := newFakeWriter()
	in := NewInstaller(w)

	site := uintptr(0x40080)
	tramp := uintptr(0x50000)

	require.NoError(t, in.Install(site, tramp))

	fwdWant, err := AssembleBranch(int32(tramp) - int32(site))
	require.NoError(t, err)
	require.Equal(t, fwdWant, w.mem[site])

	backWant, err := AssembleBranch(int32(site+4) - int32(tramp+retOffset))
	require.NoError(t, err)
	require.Equal(t, backWant, w.mem[tramp+retOffset])
}

func TestInstallerRejectsUnreachableTrampoline(t *testing.T) {
	w := newFakeWriter()
	in := NewInstaller(w)

	err := in.Install(0x1000, 0x1000+uintptr(int24Max)*4*4)
	require.Error(t, err)
}
