package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexAlignment indicates a slot index that is not a multiple of the record stride.
	ErrIndexAlignment = errors.New("buffer: index not aligned to record stride")

	// ErrIndexRange indicates a slot index past the end of the buffer.
	ErrIndexRange = errors.New("buffer: index out of range")

	// ErrUnknownField indicates a field name missing from the record schema.
	ErrUnknownField = errors.New("buffer: unknown field")

	// ErrLength indicates a buffer whose length is not a whole number of records.
	ErrLength = errors.New("buffer: length not a multiple of record stride")
)

type IndexAlignmentError struct {
	Schema string
	Index  float64
	Stride int
}

func (e IndexAlignmentError) Error() string {
	return fmt.Sprintf("buffer: %s index %v is not a multiple of stride %d", e.Schema, e.Index, e.Stride)
}

func (e IndexAlignmentError) Is(target error) bool {
	return target == ErrIndexAlignment
}

type IndexRangeError struct {
	Schema string
	Index  float64
	Len    int
}

func (e IndexRangeError) Error() string {
	return fmt.Sprintf("buffer: %s index %v out of range for length %d", e.Schema, e.Index, e.Len)
}

func (e IndexRangeError) Is(target error) bool {
	return target == ErrIndexRange
}

type UnknownFieldError struct {
	Schema string
	Field  string
}

func (e UnknownFieldError) Error() string {
	return fmt.Sprintf("buffer: %s record has no field %q", e.Schema, e.Field)
}

func (e UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}
