package descriptor

import (
	"fmt"
	"strings"
)

// maxFieldCount bounds a single repeat count to keep malformed layouts from
// allocating huge buffers.
const maxFieldCount = 1 << 16

// Descriptor is an immutable, parsed layout.
type Descriptor struct {
	layout string
	fields []FieldSpec
	size   int
	values int
}

// Parse parses a layout string such as ">HH8s" into a Descriptor.
//
// The layout must start with '>' (big-endian). Whitespace between fields is ignored.
func Parse(layout string) (*Descriptor, error) {
	if !strings.HasPrefix(layout, ">") {
		return nil, fmt.Errorf("%w: %q must start with '>'", ErrInvalidLayout, layout)
	}

	d := &Descriptor{layout: layout}

	count, counted := 0, false
	for i := 1; i < len(layout); i++ {
		c := layout[i]
		switch {
		case c == ' ' || c == '\t':
			if counted {
				return nil, fmt.Errorf("%w: %q has whitespace inside a field at offset %d", ErrInvalidLayout, layout, i)
			}

		case c >= '0' && c <= '9':
			count = count*10 + int(c-'0')
			counted = true
			if count > maxFieldCount {
				return nil, fmt.Errorf("%w: %q repeat count exceeds %d", ErrInvalidLayout, layout, maxFieldCount)
			}

		default:
			kind, ok := kindCodes[c]
			if !ok {
				return nil, fmt.Errorf("%w: %q has unknown type code %q at offset %d", ErrInvalidLayout, layout, c, i)
			}
			if !counted {
				count = 1
			}
			field := FieldSpec{Kind: kind, Count: count, Counted: counted}
			d.fields = append(d.fields, field)
			d.size += field.Size()
			d.values += field.NumValues()
			count, counted = 0, false
		}
	}

	if counted {
		return nil, fmt.Errorf("%w: %q ends with a repeat count", ErrInvalidLayout, layout)
	}

	return d, nil
}

// MustParse is like Parse but panics on error.
// It is intended for package level descriptor variables.
func MustParse(layout string) *Descriptor {
	d, err := Parse(layout)
	if err != nil {
		panic(err)
	}
	return d
}

// Layout returns the layout string the descriptor was parsed from.
func (d *Descriptor) Layout() string {
	return d.layout
}

func (d *Descriptor) String() string {
	return d.layout
}

// Fields returns a copy of the field specifications in layout order.
func (d *Descriptor) Fields() []FieldSpec {
	fields := make([]FieldSpec, len(d.fields))
	copy(fields, d.fields)

	return fields
}

// Size returns the static packed byte length, the sum of width × count over all fields.
func (d *Descriptor) Size() int {
	return d.size
}

// NumValues returns the number of values a static decode produces.
func (d *Descriptor) NumValues() int {
	return d.values
}

// uniformUnsigned reports the element bit width when every field has the same
// unsigned kind, as required by integer concatenation.
func (d *Descriptor) uniformUnsigned() (int, bool) {
	if len(d.fields) == 0 {
		return 0, false
	}

	kind := d.fields[0].Kind
	if !kind.IsUnsigned() {
		return 0, false
	}
	for _, f := range d.fields[1:] {
		if f.Kind != kind {
			return 0, false
		}
	}

	return kind.Width() * 8, true
}
