//go:build linux && arm

package vfptrap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// osPageAllocator places trampolines with a raw SYS_MMAP2 call rather
// than the exported unix.Mmap wrapper: Mmap has no address parameter,
// but the Factory must probe specific candidate pages within a probe
// site's branch reach, which requires MAP_FIXED_NOREPLACE at a chosen
// address.
type osPageAllocator struct{}

// NewPageAllocator returns the live, mmap-backed PageAllocator used by
// the install-time entry point.
func NewPageAllocator() PageAllocator { return osPageAllocator{} }

func (osPageAllocator) PageSize() int { return unix.Getpagesize() }

func (osPageAllocator) MapPage(at uintptr, size int) ([]byte, bool, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
	flags := unix.MAP_PRIVATE | unix.MAP_ANON | unix.MAP_FIXED_NOREPLACE
	fd := -1

	r0, _, errno := unix.Syscall6(unix.SYS_MMAP2,
		at, uintptr(size), uintptr(prot), uintptr(flags), uintptr(fd), 0)
	if errno != 0 {
		if errno == unix.EEXIST || errno == unix.EINVAL {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("vfptrap: mmap at %#x: %w", at, errno)
	}
	if r0 != at {
		// MAP_FIXED_NOREPLACE guarantees this can't happen; guard
		// anyway and release the unexpected mapping.
		unix.Syscall(unix.SYS_MUNMAP, r0, uintptr(size), 0)
		return nil, false, nil
	}

	mem := unsafe.Slice((*byte)(unsafe.Pointer(r0)), size)
	return mem, true, nil
}

// osWriter patches live process memory: raise the containing page's
// permissions, then store.
type osWriter struct{ pageSize int }

// NewMemWriter returns the live Writer used by the Probe Installer and
// by Clobber.
func NewMemWriter() Writer { return &osWriter{pageSize: unix.Getpagesize()} }

func (w *osWriter) EnsureWritable(addr uintptr, length int) error {
	pageAddr := addr &^ (uintptr(w.pageSize) - 1)
	end := addr + uintptr(length)
	span := end - pageAddr
	mem := unsafe.Slice((*byte)(unsafe.Pointer(pageAddr)), span)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("%w: %v", ErrProtectionDenied, err)
	}
	return nil
}

func (w *osWriter) Write(addr uintptr, data []byte) error {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data))
	copy(dst, data)
	return nil
}
