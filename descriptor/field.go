package descriptor

// Kind is the element type of a field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindBool
	KindBytes
	KindFloat32
	KindFloat64
)

var kindCodes = map[byte]Kind{
	'B': KindUint8,
	'H': KindUint16,
	'I': KindUint32,
	'Q': KindUint64,
	'b': KindInt8,
	'h': KindInt16,
	'i': KindInt32,
	'q': KindInt64,
	'?': KindBool,
	's': KindBytes,
	'f': KindFloat32,
	'd': KindFloat64,
}

var kindWidths = [...]int{
	KindInvalid: 0,
	KindUint8:   1,
	KindUint16:  2,
	KindUint32:  4,
	KindUint64:  8,
	KindInt8:    1,
	KindInt16:   2,
	KindInt32:   4,
	KindInt64:   8,
	KindBool:    1,
	KindBytes:   1,
	KindFloat32: 4,
	KindFloat64: 8,
}

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindUint8:   "u1",
	KindUint16:  "u2",
	KindUint32:  "u4",
	KindUint64:  "u8",
	KindInt8:    "i1",
	KindInt16:   "i2",
	KindInt32:   "i4",
	KindInt64:   "i8",
	KindBool:    "boolean",
	KindBytes:   "bytes",
	KindFloat32: "f4",
	KindFloat64: "f8",
}

// Width returns the byte width of one element of the kind.
func (k Kind) Width() int {
	if int(k) >= len(kindWidths) {
		return 0
	}
	return kindWidths[k]
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return kindNames[KindInvalid]
	}
	return kindNames[k]
}

// IsUnsigned reports whether the kind is an unsigned integer.
func (k Kind) IsUnsigned() bool {
	return k >= KindUint8 && k <= KindUint64
}

// IsSigned reports whether the kind is a signed integer.
func (k Kind) IsSigned() bool {
	return k >= KindInt8 && k <= KindInt64
}

// FieldSpec describes one field of a layout.
type FieldSpec struct {
	// Kind is the element type.
	Kind Kind
	// Count is the repeat count. For KindBytes it is the blob length.
	Count int
	// Counted reports whether the count was written explicitly in the layout.
	// Only counted fields are treated as upper bounds by UnpackDynamic.
	Counted bool
}

// Size returns the packed byte length of the field.
func (f FieldSpec) Size() int {
	return f.Kind.Width() * f.Count
}

// NumValues returns how many values the field produces when decoded statically.
// A blob produces a single []byte value.
func (f FieldSpec) NumValues() int {
	if f.Kind == KindBytes {
		return 1
	}
	return f.Count
}
