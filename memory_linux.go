//go:build linux && arm

package vfptrap

import "unsafe"

// liveMemory reads straight out of the running process's own address
// space, valid only for addresses the scanner has already confirmed
// lie within a mapped, readable region.
type liveMemory struct{}

// NewLiveMemory returns the MemoryReader used by the install-time
// entry point.
func NewLiveMemory() MemoryReader { return liveMemory{} }

func (liveMemory) ReadWord(addr uintptr) ([4]byte, bool) {
	if addr == 0 {
		return [4]byte{}, false
	}
	p := (*[4]byte)(unsafe.Pointer(addr))
	return *p, true
}
