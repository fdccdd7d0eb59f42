// Package descriptor implements the byte layout language used to pack sensor
// command arguments and to unpack sensor responses.
//
// A layout is a compact string modelled after fixed-width binary records:
//
//	>HHH     command id (uint16) followed by two uint16 arguments
//	>BB      one-byte command id and one uint8 argument
//	>32s     a byte blob of (up to) 32 bytes
//	>6B      six uint8 values
//
// The leading '>' selects big-endian byte order and is mandatory; it is the only
// byte order devices use. Each field is an optional decimal repeat count followed
// by a type code:
//
//	B H I Q   unsigned 8/16/32/64 bit integer
//	b h i q   signed 8/16/32/64 bit integer
//	?         boolean (one byte)
//	s         byte blob; the count is the blob length
//	f d       IEEE-754 float32/float64
//
// # Static and dynamic decoding
//
// [Descriptor.Unpack] decodes a buffer of exactly [Descriptor.Size] bytes.
// [Descriptor.UnpackDynamic] treats explicit counts as upper bounds: blobs end at
// the first zero byte and counted fields stop at the end of the buffer. This is
// the convention of serial (SHDLC) devices which return zero-padded or shortened
// responses.
//
// # Integer concatenation
//
// Some devices return a serial number as a sequence of words. [RxData] built with
// [WithConvertToInt] folds such uniform unsigned fields into one big-endian
// integer, e.g. >6B over aa bb cc dd ee ff yields 0xaabbccddeeff.
package descriptor
