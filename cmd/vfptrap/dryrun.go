package main

import (
	"context"
	"debug/elf"

	"vfptrap"
)

// The scan subcommand dry-runs the engine's classification and
// trampoline-generation pipeline against an in-memory file buffer
// instead of live process memory, so it never needs mmap/mprotect
// permission to do its reporting. These small fakes stand in for the
// collaborators that normally talk to the OS.

type fakeSingleMappingSource struct {
	mapping vfptrap.Mapping
}

func (s fakeSingleMappingSource) Mappings(ctx context.Context) ([]vfptrap.Mapping, error) {
	return []vfptrap.Mapping{s.mapping}, nil
}

// fakeWholeFileMetaSource treats the whole supplied buffer as a
// single executable-flagged section, so the dry run doesn't depend on
// the target file actually being a well-formed ELF image.
type fakeWholeFileMetaSource struct {
	data []byte
	base uintptr
}

func (s fakeWholeFileMetaSource) Lookup(ctx context.Context, addr uintptr, path string) (*vfptrap.FileMetadata, bool, error) {
	return &vfptrap.FileMetadata{
		LoadBias: 0,
		Sections: []elf.SectionHeader{
			{
				Name:  ".text",
				Type:  elf.SHT_PROGBITS,
				Flags: elf.SHF_EXECINSTR | elf.SHF_ALLOC,
				Addr:  uint64(s.base),
				Size:  uint64(len(s.data)),
			},
		},
	}, true, nil
}

// fakeDryRunAllocator accepts every requested page and hands back a
// fresh heap buffer rather than a real page, so Factory.Generate
// always succeeds without mmap.
type fakeDryRunAllocator struct{}

func (fakeDryRunAllocator) PageSize() int { return 4096 }

func (fakeDryRunAllocator) MapPage(at uintptr, size int) ([]byte, bool, error) {
	return make([]byte, size), true, nil
}

// fakeDryRunWriter discards writes; the dry run only counts what
// would be patched.
type fakeDryRunWriter struct{}

func (fakeDryRunWriter) EnsureWritable(addr uintptr, length int) error { return nil }
func (fakeDryRunWriter) Write(addr uintptr, data []byte) error         { return nil }
