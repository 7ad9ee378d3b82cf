package vfptrap

import (
	"context"
	"fmt"
	"strings"

	"vfptrap/internal/elfmeta"
)

// ELFFileMetaSource is the default FileMetaSource: it backs Lookup
// with debug/elf via internal/elfmeta, memoizing per path for the
// scan's lifetime.
type ELFFileMetaSource struct {
	source *elfmeta.Source
}

// NewELFFileMetaSource returns a ready-to-use source.
func NewELFFileMetaSource() *ELFFileMetaSource {
	return &ELFFileMetaSource{source: elfmeta.NewSource()}
}

// Lookup implements FileMetaSource. path is the backing pathname
// already extracted from a mapping's Rest field; addr is the
// mapping's start address, used to derive the load bias against the
// file's first loadable segment.
func (s *ELFFileMetaSource) Lookup(ctx context.Context, addr uintptr, path string) (*FileMetadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path = strings.TrimSpace(path)
	if path == "" || !strings.HasPrefix(path, "/") {
		return nil, false, nil
	}

	m, err := s.source.Load(path)
	if err != nil {
		return nil, false, fmt.Errorf("vfptrap: loading ELF metadata for %s: %w", path, err)
	}

	var bias uintptr
	if m.HasFirstLoad {
		bias = addr - uintptr(m.FirstLoadVA)
	}

	return &FileMetadata{
		LoadBias:  bias,
		Header:    m.Header,
		Sections:  m.Sections,
		PHOff:     m.PHOff,
		PHNum:     m.PHNum,
		PHEntSize: m.PHEntSize,
	}, true, nil
}
