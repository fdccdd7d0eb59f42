package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLayout indicates a layout string that cannot be parsed or used for the requested purpose.
	ErrInvalidLayout = errors.New("descriptor: invalid layout")

	// ErrEncoding is matched by every *EncodingError.
	ErrEncoding = errors.New("descriptor: encoding error")

	// ErrDecoding is matched by every *DecodingError.
	ErrDecoding = errors.New("descriptor: decoding error")

	// ErrValueIndex indicates an out of range index passed to a Values accessor.
	ErrValueIndex = errors.New("descriptor: value index out of range")

	// ErrValueType indicates that a decoded value cannot be converted to the requested type.
	ErrValueType = errors.New("descriptor: value has incompatible type")
)

// EncodingError records a failure to pack arguments according to a layout.
type EncodingError struct {
	// Layout is the layout string of the descriptor.
	Layout string
	// Field is the zero based index of the offending field, or -1 for arity errors.
	Field int
	// Reason describes the mismatch.
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("descriptor: cannot encode %q: %s", e.Layout, e.Reason)
	}

	return fmt.Sprintf("descriptor: cannot encode %q field %d: %s", e.Layout, e.Field, e.Reason)
}

// Is reports whether target is ErrEncoding.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// DecodingError records a failure to unpack bytes according to a layout.
type DecodingError struct {
	// Layout is the layout string of the descriptor.
	Layout string
	// Want is the number of bytes the layout requires.
	Want int
	// Got is the number of bytes that were available.
	Got int
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("descriptor: cannot decode %q: need %d bytes, got %d", e.Layout, e.Want, e.Got)
}

// Is reports whether target is ErrDecoding.
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}
