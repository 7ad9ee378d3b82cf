//go:build !(linux && arm)

package vfptrap

import (
	"fmt"
	"runtime"
)

// osPageAllocator and osWriter are ARMv7-A Linux-only: the mmap/
// mprotect wiring below needs a raw SYS_MMAP2 fixed-address call that
// only exists on that target. On any other GOOS/GOARCH, the
// constructors still succeed but every method that would touch memory
// returns an explanatory error instead, so tests and the scan
// dry-run path (which use fakes, not these) still build everywhere.

type osPageAllocator struct{}

func NewPageAllocator() PageAllocator { return osPageAllocator{} }

func (osPageAllocator) PageSize() int { return 4096 }

func (osPageAllocator) MapPage(at uintptr, size int) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("vfptrap: live trampoline placement is unsupported on %s/%s", runtime.GOOS, runtime.GOARCH)
}

type osWriter struct{}

func NewMemWriter() Writer { return osWriter{} }

func (osWriter) EnsureWritable(addr uintptr, length int) error {
	return fmt.Errorf("vfptrap: live memory protection is unsupported on %s/%s", runtime.GOOS, runtime.GOARCH)
}

func (osWriter) Write(addr uintptr, data []byte) error {
	return fmt.Errorf("vfptrap: live memory writes are unsupported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
