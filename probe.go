package vfptrap

import "fmt"

// Installer implements the Probe Installer: given a probe site and a
// trampoline base, it computes and writes both branches that wire
// them together.
type Installer struct {
	Mem Writer
}

// NewInstaller returns an Installer backed by w.
func NewInstaller(w Writer) *Installer {
	return &Installer{Mem: w}
}

// Install implements spec.md §4.4: compute forward (site→tramp) and
// return (tramp+retOffset→site+4) displacements, assemble both as `b`
// instructions, and write them. The return branch is written first,
// since the forward branch is what makes the trampoline reachable at
// all — writing it second guarantees no concurrent reader can ever
// observe a probe branching into an unfinished trampoline.
func (in *Installer) Install(site, tramp uintptr) error {
	forward := int64(tramp) - int64(site)
	back := (int64(site) + 4) - (int64(tramp) + retOffset)

	fwdBranch, err := AssembleBranch(int32(forward))
	if err != nil {
		return fmt.Errorf("vfptrap: forward branch at %#x: %w", site, err)
	}
	backBranch, err := AssembleBranch(int32(back))
	if err != nil {
		return fmt.Errorf("vfptrap: return branch at %#x: %w", tramp, err)
	}

	if err := Clobber(in.Mem, tramp+retOffset, backBranch); err != nil {
		return fmt.Errorf("vfptrap: writing return branch at %#x: %w", tramp+retOffset, err)
	}
	if err := Clobber(in.Mem, site, fwdBranch); err != nil {
		return fmt.Errorf("vfptrap: writing probe branch at %#x: %w", site, err)
	}
	return nil
}
