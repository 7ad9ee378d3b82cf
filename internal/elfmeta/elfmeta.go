// Package elfmeta reads ELF headers and section tables for files
// backing live memory mappings, and memoizes the result per path for
// the lifetime of a scan.
package elfmeta

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// Metadata is the subset of an ELF file's structure the instrumentation
// engine needs: the section table (for narrowing a mapping to its
// executable-flagged ranges) and the program-header table's extent
// (for skipping past the ELF header when a scanned range starts with
// one).
type Metadata struct {
	Header        elf.FileHeader
	Sections      []elf.SectionHeader
	PHOff         uint64
	PHNum         uint16
	PHEntSize     uint16
	FirstLoadVA   uint64
	HasFirstLoad  bool
}

// Source loads and caches Metadata by backing file path.
type Source struct {
	mu    sync.Mutex
	cache map[string]*Metadata
}

// NewSource returns an empty, ready-to-use Source.
func NewSource() *Source {
	return &Source{cache: make(map[string]*Metadata)}
}

// Load returns the Metadata for path, parsing it on first use and
// serving the cached value afterward.
func (s *Source) Load(path string) (*Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.cache[path]; ok {
		return m, nil
	}

	m, err := parse(path)
	if err != nil {
		return nil, err
	}
	s.cache[path] = m
	return m, nil
}

func parse(path string) (*Metadata, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfmeta: opening %s: %w", path, err)
	}
	defer f.Close()

	m := &Metadata{Header: f.FileHeader}
	for _, sec := range f.Sections {
		m.Sections = append(m.Sections, sec.SectionHeader)
	}
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD && !m.HasFirstLoad {
			m.FirstLoadVA = prog.Vaddr
			m.HasFirstLoad = true
		}
	}

	phoff, phnum, phentsize, err := readProgramHeaderExtent(path, f.FileHeader)
	if err != nil {
		return nil, err
	}
	m.PHOff, m.PHNum, m.PHEntSize = phoff, phnum, phentsize

	return m, nil
}

// readProgramHeaderExtent re-reads the raw ELF identification and
// header fields directly: debug/elf's FileHeader deliberately omits
// e_phoff/e_phnum/e_phentsize, but the ELF-header-skip heuristic needs
// the exact byte span of the header plus program-header table.
func readProgramHeaderExtent(path string, fh elf.FileHeader) (phoff uint64, phnum, phentsize uint16, err error) {
	raw, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("elfmeta: reopening %s: %w", path, err)
	}
	defer raw.Close()

	switch fh.Class {
	case elf.ELFCLASS32:
		var hdr elf.Header32
		if err := binary.Read(raw, fh.ByteOrder, &hdr); err != nil {
			return 0, 0, 0, fmt.Errorf("elfmeta: reading Header32 for %s: %w", path, err)
		}
		return uint64(hdr.Phoff), hdr.Phnum, hdr.Phentsize, nil
	case elf.ELFCLASS64:
		var hdr elf.Header64
		if err := binary.Read(raw, fh.ByteOrder, &hdr); err != nil {
			return 0, 0, 0, fmt.Errorf("elfmeta: reading Header64 for %s: %w", path, err)
		}
		return hdr.Phoff, hdr.Phnum, hdr.Phentsize, nil
	default:
		return 0, 0, 0, fmt.Errorf("elfmeta: unsupported ELF class %v for %s", fh.Class, path)
	}
}
