package descriptor

import (
	"encoding/binary"
	"math"

	"github.com/arloliu/go-sensoradapter/internal/util"
)

// Unpack decodes data laid out exactly as the descriptor describes.
//
// It returns a *DecodingError if len(data) differs from Size().
func (d *Descriptor) Unpack(data []byte) (Values, error) {
	if len(data) != d.size {
		return nil, &DecodingError{Layout: d.layout, Want: d.size, Got: len(data)}
	}

	values := make(Values, 0, d.values)
	pos := 0
	for _, f := range d.fields {
		values = decodeField(values, f.Kind, f.Count, data[pos:pos+f.Size()])
		pos += f.Size()
	}

	return values, nil
}

// UnpackDynamic decodes data whose counted fields may be shorter than declared.
//
// Fields are walked left to right. For a field with an explicit count the byte range
// [pos, min(pos+size, len(data))) is scanned; a blob field ends at the first zero byte.
// The field yields as many whole elements as were scanned and the position advances by
// the bytes actually consumed, so a truncated blob does not swallow the following fields.
// Fields without an explicit count are decoded at their full width and return a
// *DecodingError if the buffer is too short.
func (d *Descriptor) UnpackDynamic(data []byte) (Values, error) {
	values := make(Values, 0, d.values)
	pos := 0

	for _, f := range d.fields {
		width := f.Kind.Width()

		if !f.Counted {
			end := pos + f.Size()
			if end > len(data) {
				return nil, &DecodingError{Layout: d.layout, Want: end, Got: len(data)}
			}
			values = decodeField(values, f.Kind, f.Count, data[pos:end])
			pos = end

			continue
		}

		limit := min(pos+f.Size(), len(data))
		scanned := 0
		for i := pos; i < limit; i++ {
			if f.Kind == KindBytes && data[i] == 0 {
				break
			}
			scanned++
		}

		count := scanned / width
		end := pos + count*width
		values = decodeField(values, f.Kind, count, data[pos:end])
		pos = end
	}

	return values, nil
}

// decodeField appends the decoded elements of one field. len(b) must be count × width.
func decodeField(values Values, kind Kind, count int, b []byte) Values {
	if kind == KindBytes {
		return append(values, util.CloneSlice(b, 0))
	}

	width := kind.Width()
	for i := 0; i < count; i++ {
		values = append(values, decodeScalar(kind, b[i*width:(i+1)*width]))
	}

	return values
}

func decodeScalar(kind Kind, b []byte) any { //nolint:cyclop
	switch kind {
	case KindUint8:
		return b[0]
	case KindUint16:
		return binary.BigEndian.Uint16(b)
	case KindUint32:
		return binary.BigEndian.Uint32(b)
	case KindUint64:
		return binary.BigEndian.Uint64(b)
	case KindInt8:
		return int8(b[0]) //nolint:gosec
	case KindInt16:
		return int16(binary.BigEndian.Uint16(b)) //nolint:gosec
	case KindInt32:
		return int32(binary.BigEndian.Uint32(b)) //nolint:gosec
	case KindInt64:
		return int64(binary.BigEndian.Uint64(b)) //nolint:gosec
	case KindBool:
		return b[0] != 0
	case KindFloat32:
		return math.Float32frombits(binary.BigEndian.Uint32(b))
	case KindFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(b))
	default:
		return nil
	}
}
