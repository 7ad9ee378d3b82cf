package vfptrap

import (
	"context"

	"vfptrap/internal/procmaps"
)

// Mapping is one record from a /proc/self/maps-shaped enumeration: a
// half-open virtual address range, its permission bits, and the
// trailing "rest" field carrying the backing pathname or a bracketed
// pseudo-name like "[stack]".
type Mapping struct {
	Start, End uintptr
	Read       bool
	Write      bool
	Exec       bool
	Private    bool
	Rest       string
}

// Len reports the byte length of the mapping's address range.
func (m Mapping) Len() int { return int(m.End - m.Start) }

// MappingSource enumerates the mappings of the running process (or,
// for testing, a synthetic image). Implementations may read
// /proc/self/maps, or simply return a canned slice.
type MappingSource interface {
	Mappings(ctx context.Context) ([]Mapping, error)
}

// ProcSelfMappings reads the running process's own maps file, the
// default MappingSource used by the install-time entry point.
type ProcSelfMappings struct{}

// Mappings implements MappingSource.
func (ProcSelfMappings) Mappings(ctx context.Context) ([]Mapping, error) {
	records, err := procmaps.Self(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Mapping, len(records))
	for i, r := range records {
		out[i] = Mapping{
			Start:   r.Start,
			End:     r.End,
			Read:    r.Read,
			Write:   r.Write,
			Exec:    r.Exec,
			Private: r.Private,
			Rest:    r.Rest,
		}
	}
	return out, nil
}
