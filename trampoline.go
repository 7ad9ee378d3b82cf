package vfptrap

import "fmt"

// Skeleton byte offsets of the words the Factory and Installer patch,
// matching the boundary-fixed constants of spec.md §6.
const (
	movUpperOffset = 4  // word 1: movw r5, upper16(&routine)
	movLowerOffset = 12 // word 3: movw r6, lower16(&routine)
	movR0Offset    = 20 // word 5
	movR1Offset    = 24 // word 6
	movR2Offset    = 28 // word 7
	movR3Offset    = 32 // word 8
	retOffset      = 44 // word 11: return branch, written by Installer

	regCall    = 5 // r5 carries the routine address into blx
	regScratch = 6 // r6 holds the lower half before the orr

	skeletonSize = 48
)

// skeleton is the fixed, immutable twelve-word template: push, the
// address-assembly movw/lsl/movw/orr sequence, four argument movws,
// blx, pop, and a branch-to-self placeholder for the return slot.
var skeleton = [skeletonSize]byte{
	0xFF, 0x5F, 0x2D, 0xE9, // push {r0-r12, r14}
	0xAD, 0x5E, 0x0D, 0xE3, // movw r5, #0xdead (patched)
	0x05, 0x58, 0xA0, 0xE1, // lsl r5, r5, #16
	0xEF, 0x6E, 0x0B, 0xE3, // movw r6, #0xbeef (patched)
	0x06, 0x50, 0x85, 0xE1, // orr r5, r5, r6
	0x00, 0x00, 0xA0, 0xE3, // mov r0, #0 (patched)
	0x00, 0x10, 0xA0, 0xE3, // mov r1, #0 (patched)
	0x00, 0x20, 0xA0, 0xE3, // mov r2, #0 (patched)
	0x00, 0x30, 0xA0, 0xE3, // mov r3, #0 (patched)
	0x35, 0xFF, 0x2F, 0xE1, // blx r5
	0xFF, 0x5F, 0xBD, 0xE8, // pop {r0-r12, r14}
	0xFE, 0xFF, 0xFF, 0xEA, // b #0 (patched by Installer)
}

// Routine is one entry of the Trampoline Factory's dispatch table: the
// emulation routine's address (obtained at registration time, e.g.
// via reflect.ValueOf(fn).Pointer() on the routine's Go closure) and
// how many of its leading argument slots (r0..r3) are meaningful. This
// generalizes the original engine's single hard-wired emulation
// address into the table the spec's design notes recommend.
type Routine struct {
	Addr     uintptr
	ArgCount int
}

// PageAllocator finds and maps a single anonymous, fixed-address page
// suitable for holding a trampoline. MapPage must only succeed when
// the kernel placed the mapping at exactly the requested address;
// any other outcome (already mapped, out of reach) is reported by
// returning mapped=false so the Factory can try the next candidate.
type PageAllocator interface {
	PageSize() int
	MapPage(at uintptr, size int) (mem []byte, mapped bool, err error)
}

// Factory generates trampolines: it finds a reachable page, copies
// the skeleton into it, and patches the routine-address and argument
// movws. The return branch slot is left for the Probe Installer,
// which is the only component that knows the final site pairing.
type Factory struct {
	Alloc    PageAllocator
	Routines map[OpcodeKind]Routine
}

// NewFactory returns a Factory backed by alloc and routines.
func NewFactory(alloc PageAllocator, routines map[OpcodeKind]Routine) *Factory {
	return &Factory{Alloc: alloc, Routines: routines}
}

// Generate implements the Trampoline Factory of spec.md §4.3: it
// locates a free page within the ±24-bit PC-relative reach of site,
// populates it with the skeleton patched for desc, and returns the
// trampoline's base address. The return branch (word 11) is left as
// the skeleton's branch-to-self placeholder.
func (f *Factory) Generate(site uintptr, desc Descriptor) (uintptr, error) {
	routine, ok := f.Routines[desc.Kind]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnhandledOpcode, desc.Kind)
	}

	pageSize := f.Alloc.PageSize()
	low, high := reachableWindow(site, pageSize)

	var mem []byte
	var tramp uintptr
	for page := low; page < high; page += uintptr(pageSize) {
		m, mapped, err := f.Alloc.MapPage(page, skeletonSize)
		if err != nil {
			return 0, err
		}
		if mapped {
			mem, tramp = m, page
			break
		}
	}
	if mem == nil {
		return 0, ErrNoTrampolineSpace
	}

	copy(mem, skeleton[:])

	upper := uint16(routine.Addr >> 16)
	lower := uint16(routine.Addr & 0xFFFF)
	if err := patchWord(mem, movUpperOffset, regCall, upper); err != nil {
		return 0, err
	}
	if err := patchWord(mem, movLowerOffset, regScratch, lower); err != nil {
		return 0, err
	}

	args := [4]uint16{uint16(desc.Sd), uint16(desc.Sn), uint16(desc.Sm), 0}
	offsets := [4]int{movR0Offset, movR1Offset, movR2Offset, movR3Offset}
	n := routine.ArgCount
	if n > 4 {
		n = 4
	}
	for i := 0; i < n; i++ {
		if err := patchWord(mem, offsets[i], uint8(i), args[i]); err != nil {
			return 0, err
		}
	}

	return tramp, nil
}

func patchWord(mem []byte, offset int, reg uint8, imm16 uint16) error {
	word, err := AssembleMovW(reg, imm16)
	if err != nil {
		return err
	}
	copy(mem[offset:offset+4], word[:])
	return nil
}

// reachableWindow computes the page-aligned [low, high) range
// described in spec.md §4.3: the raw, unscaled INT24_MIN/INT24_MAX
// byte window around site, rounded to page boundaries. This mirrors
// the original engine's page-search window exactly rather than the
// wider, ×4-scaled true branch-encoding range: any page found here is
// trivially within the true reachable range too (see DESIGN.md).
func reachableWindow(site uintptr, pageSize int) (low, high uintptr) {
	lowSigned := int64(site) + int24Min
	if lowSigned < 0 {
		lowSigned = 0
	}
	highSigned := int64(site) + int24Max

	low = roundUpPage(uintptr(lowSigned), pageSize)
	high = roundDownPage(uintptr(highSigned), pageSize)
	return low, high
}

func roundUpPage(addr uintptr, pageSize int) uintptr {
	ps := uintptr(pageSize)
	return (addr + ps - 1) &^ (ps - 1)
}

func roundDownPage(addr uintptr, pageSize int) uintptr {
	ps := uintptr(pageSize)
	return addr &^ (ps - 1)
}
