package descriptor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/go-sensoradapter/internal/util"
)

// Pack serializes values according to the layout, big-endian.
//
// Values are consumed in layout order:
//   - A scalar field consumes one value.
//   - A counted scalar field (e.g. 8B) consumes either one slice with exactly count
//     elements or count individual values.
//   - A blob field (e.g. 8s) consumes one string or []byte, zero-padded or truncated to count bytes.
//
// Integer fields accept any Go integer type or a numeric string and are range checked
// against the field width. Any arity, type or range mismatch returns an *EncodingError.
func (d *Descriptor) Pack(values ...any) ([]byte, error) {
	buf := make([]byte, 0, d.size)
	idx := 0

	for fi, f := range d.fields {
		if f.Kind != KindBytes && f.Count == 0 {
			continue
		}
		if idx >= len(values) {
			return nil, d.encErr(-1, "too few arguments: got %d", len(values))
		}

		if f.Kind == KindBytes {
			blob, ok := toBlob(values[idx])
			if !ok {
				return nil, d.encErr(fi, "cannot use %T as bytes", values[idx])
			}
			idx++
			padded := make([]byte, f.Count)
			copy(padded, blob)
			buf = append(buf, padded...)

			continue
		}

		elems, consumed, err := d.collect(fi, f, values[idx:])
		if err != nil {
			return nil, err
		}
		idx += consumed

		for _, elem := range elems {
			buf, err = d.appendScalar(buf, fi, f.Kind, elem)
			if err != nil {
				return nil, err
			}
		}
	}

	if idx != len(values) {
		return nil, d.encErr(-1, "too many arguments: got %d, used %d", len(values), idx)
	}

	return buf, nil
}

// collect returns the count elements of a scalar field and how many arguments they used.
func (d *Descriptor) collect(fi int, f FieldSpec, values []any) ([]any, int, error) {
	if f.Count != 1 {
		if elems, ok := expandSlice(values[0]); ok {
			if len(elems) != f.Count {
				return nil, 0, d.encErr(fi, "slice has %d elements, want %d", len(elems), f.Count)
			}
			return elems, 1, nil
		}
	}

	if len(values) < f.Count {
		return nil, 0, d.encErr(fi, "too few arguments: need %d, have %d", f.Count, len(values))
	}

	return values[:f.Count], f.Count, nil
}

func (d *Descriptor) appendScalar(buf []byte, fi int, kind Kind, value any) ([]byte, error) { //nolint:cyclop
	switch {
	case kind.IsUnsigned():
		u, ok := util.ToUint64(value)
		if !ok {
			return nil, d.encErr(fi, "cannot use %T(%v) as %s", value, value, kind)
		}
		if kind.Width() < 8 && u > 1<<(kind.Width()*8)-1 {
			return nil, d.encErr(fi, "value %d overflows %s", u, kind)
		}

		switch kind.Width() {
		case 1:
			return append(buf, byte(u)), nil
		case 2:
			return binary.BigEndian.AppendUint16(buf, uint16(u)), nil //nolint:gosec
		case 4:
			return binary.BigEndian.AppendUint32(buf, uint32(u)), nil //nolint:gosec
		default:
			return binary.BigEndian.AppendUint64(buf, u), nil
		}

	case kind.IsSigned():
		i, ok := util.ToInt64(value)
		if !ok {
			return nil, d.encErr(fi, "cannot use %T(%v) as %s", value, value, kind)
		}
		bits := kind.Width() * 8
		if bits < 64 && (i < -(1<<(bits-1)) || i > 1<<(bits-1)-1) {
			return nil, d.encErr(fi, "value %d overflows %s", i, kind)
		}

		switch kind.Width() {
		case 1:
			return append(buf, byte(i)), nil
		case 2:
			return binary.BigEndian.AppendUint16(buf, uint16(i)), nil //nolint:gosec
		case 4:
			return binary.BigEndian.AppendUint32(buf, uint32(i)), nil //nolint:gosec
		default:
			return binary.BigEndian.AppendUint64(buf, uint64(i)), nil //nolint:gosec
		}

	case kind == KindBool:
		switch v := value.(type) {
		case bool:
			if v {
				return append(buf, 1), nil
			}
			return append(buf, 0), nil
		default:
			u, ok := util.ToUint64(value)
			if !ok || u > 1 {
				return nil, d.encErr(fi, "cannot use %T(%v) as boolean", value, value)
			}
			return append(buf, byte(u)), nil
		}

	case kind == KindFloat32:
		f, ok := util.ToFloat64(value)
		if !ok {
			return nil, d.encErr(fi, "cannot use %T(%v) as %s", value, value, kind)
		}
		return binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(f))), nil

	case kind == KindFloat64:
		f, ok := util.ToFloat64(value)
		if !ok {
			return nil, d.encErr(fi, "cannot use %T(%v) as %s", value, value, kind)
		}
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(f)), nil
	}

	return nil, d.encErr(fi, "unsupported kind %s", kind)
}

func (d *Descriptor) encErr(field int, format string, args ...any) error {
	return &EncodingError{Layout: d.layout, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func toBlob(value any) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

// expandSlice spreads the common slice types into individual values.
func expandSlice(value any) ([]any, bool) { //nolint:cyclop
	switch v := value.(type) {
	case []any:
		return v, true
	case []uint8:
		return spread(v), true
	case []uint16:
		return spread(v), true
	case []uint32:
		return spread(v), true
	case []uint64:
		return spread(v), true
	case []uint:
		return spread(v), true
	case []int8:
		return spread(v), true
	case []int16:
		return spread(v), true
	case []int32:
		return spread(v), true
	case []int64:
		return spread(v), true
	case []int:
		return spread(v), true
	case []bool:
		return spread(v), true
	case []float32:
		return spread(v), true
	case []float64:
		return spread(v), true
	default:
		return nil, false
	}
}

func spread[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
