// Package buffer describes the flat float64 record layouts shared by the
// layout engine and its hosts.
package buffer

import "math"

// Node record offsets.
const (
	X = iota
	Y
	DX
	DY
	OldDX
	OldDY
	Mass
	Fixed
	Size
)

// Edge record offsets.
const (
	Source = iota
	Target
	Weight
)

const (
	NodeStride      = 8
	SizedNodeStride = 9
	EdgeStride      = 3
)

// Schema names the fields of a fixed-stride record.
type Schema struct {
	name    string
	fields  []string
	offsets map[string]int
}

func NewSchema(name string, fields ...string) *Schema {
	s := &Schema{
		name:    name,
		fields:  fields,
		offsets: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.offsets[f] = i
	}
	return s
}

var (
	NodeSchema      = NewSchema("node", "x", "y", "dx", "dy", "old_dx", "old_dy", "mass", "fixed")
	SizedNodeSchema = NewSchema("node", "x", "y", "dx", "dy", "old_dx", "old_dy", "mass", "fixed", "size")
	EdgeSchema      = NewSchema("edge", "source", "target", "weight")
)

func (s *Schema) Name() string { return s.name }

func (s *Schema) Stride() int { return len(s.fields) }

func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Has(field string) bool {
	_, ok := s.offsets[field]
	return ok
}

func (s *Schema) Offset(field string) (int, error) {
	off, ok := s.offsets[field]
	if !ok {
		return 0, UnknownFieldError{Schema: s.name, Field: field}
	}
	return off, nil
}

// Index returns i + offset(field). i must be a multiple of the stride.
func (s *Schema) Index(i int, field string) (int, error) {
	if i < 0 || i%s.Stride() != 0 {
		return 0, IndexAlignmentError{Schema: s.name, Index: float64(i), Stride: s.Stride()}
	}
	off, err := s.Offset(field)
	if err != nil {
		return 0, err
	}
	return i + off, nil
}

// Slot converts a stored float index into a validated record start within a
// buffer of the given length.
// Values past the buffer, Inf included, are rejected before the integer
// conversion.
func (s *Schema) Slot(v float64, length int) (int, error) {
	if v < 0 || v != math.Trunc(v) {
		return 0, IndexAlignmentError{Schema: s.name, Index: v, Stride: s.Stride()}
	}
	if v+float64(s.Stride()) > float64(length) {
		return 0, IndexRangeError{Schema: s.name, Index: v, Len: length}
	}
	i := int(v)
	if i%s.Stride() != 0 {
		return 0, IndexAlignmentError{Schema: s.name, Index: v, Stride: s.Stride()}
	}
	return i, nil
}

// Count returns the number of whole records in a buffer of the given length.
func (s *Schema) Count(length int) int {
	return length / s.Stride()
}
