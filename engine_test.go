package vfptrap

import (
	"context"
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMappingSource struct{ mappings []Mapping }

func (s fakeMappingSource) Mappings(ctx context.Context) ([]Mapping, error) {
	return s.mappings, nil
}

type fakeFileMetaSource struct {
	meta *FileMetadata
	ok   bool
}

func (s fakeFileMetaSource) Lookup(ctx context.Context, addr uintptr, path string) (*FileMetadata, bool, error) {
	return s.meta, s.ok, nil
}

func vaddWord() [4]byte { return [4]byte{0x20, 0x0A, 0x30, 0xEE} } // vadd.f32 s0,s0,s1

func newTestEngine(t *testing.T, mappings []Mapping, meta *FileMetadata, ok bool, mem MemoryReader) (*Engine, *fakeWriter) {
	t.Helper()
	alloc := newFakePageAllocator(0x1000, 0)
	routines := map[OpcodeKind]Routine{VAddF32: {Addr: 0xDEADBEEF, ArgCount: 3}}
	factory := NewFactory(alloc, routines)
	w := newFakeWriter()
	installer := NewInstaller(w)

	e, err := New(
		fakeMappingSource{mappings},
		fakeFileMetaSource{meta: meta, ok: ok},
		ArmClassifier{},
		factory,
		installer,
		mem,
		Options{ContinueOnPlacementFailure: true},
	)
	require.NoError(t, err)
	return e, w
}

func TestEngineSkipsFilteredMapping(t *testing.T) {
	mappings := []Mapping{{Start: 0x1000, End: 0x2000, Exec: true, Rest: "/lib/libm-2.31.so"}}
	e, w := newTestEngine(t, mappings, nil, true, FileMemory{})

	n, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Empty(t, w.mem)
}

func TestEngineSkipsMappingWithoutMetadata(t *testing.T) {
	mappings := []Mapping{{Start: 0x1000, End: 0x2000, Exec: true, Rest: "/opt/app/bin"}}
	e, _ := newTestEngine(t, mappings, nil, false, FileMemory{})

	n, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestEngineSkipsNonExecutableMapping(t *testing.T) {
	mappings := []Mapping{{Start: 0x1000, End: 0x2000, Exec: false, Rest: "/opt/app/bin"}}
	meta := &FileMetadata{Sections: []elf.SectionHeader{
		{Flags: elf.SHF_EXECINSTR, Addr: 0x1000, Size: 0x1000},
	}}
	e, _ := newTestEngine(t, mappings, meta, true, FileMemory{})

	n, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestEngineInstallsProbePastELFHeader(t *testing.T) {
	const base = uintptr(0x40000)

	data := make([]byte, 0x200)
	copy(data[0:4], []byte{0x7F, 'E', 'L', 'F'})
	const phoff, phnum, phentsize = 0x34, 1, 0x20
	vaddOffset := uintptr(phoff + phnum*phentsize + 0x10)
	w := vaddWord()
	copy(data[vaddOffset:vaddOffset+4], w[:])

	mem := FileMemory{Base: base, Data: data}
	mappings := []Mapping{{Start: base, End: base + uintptr(len(data)), Exec: true, Rest: "/opt/app/bin"}}
	meta := &FileMetadata{
		Sections: []elf.SectionHeader{
			{Flags: elf.SHF_EXECINSTR, Addr: uint64(base), Size: uint64(len(data))},
		},
		PHOff:     phoff,
		PHNum:     phnum,
		PHEntSize: phentsize,
	}

	e, writer := newTestEngine(t, mappings, meta, true, mem)

	n, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	probeSite := base + vaddOffset
	_, patched := writer.mem[probeSite]
	require.True(t, patched, "probe written at %#x", probeSite)
}

func TestEngineDoesNotInstallInsideELFHeader(t *testing.T) {
	const base = uintptr(0x40000)

	data := make([]byte, 0x200)
	copy(data[0:4], []byte{0x7F, 'E', 'L', 'F'})
	w := vaddWord()
	// Place a VADD word inside the header/program-header region itself
	// (offset 8), which must never be reached by the scan.
	copy(data[8:12], w[:])

	mem := FileMemory{Base: base, Data: data}
	mappings := []Mapping{{Start: base, End: base + uintptr(len(data)), Exec: true, Rest: "/opt/app/bin"}}
	meta := &FileMetadata{
		Sections: []elf.SectionHeader{
			{Flags: elf.SHF_EXECINSTR, Addr: uint64(base), Size: uint64(len(data))},
		},
		PHOff:     0x34,
		PHNum:     1,
		PHEntSize: 0x20,
	}

	e, _ := newTestEngine(t, mappings, meta, true, mem)

	n, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
