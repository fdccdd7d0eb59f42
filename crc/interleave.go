package crc

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksum is matched by every *ChecksumError.
	ErrChecksum = errors.New("crc: checksum mismatch")
	// ErrFrameLength indicates a checksummed frame ending with a lone byte, len%3 == 1.
	ErrFrameLength = errors.New("crc: frame length ends with a partial group")
)

// ChecksumError reports a received word whose checksum does not match its data.
type ChecksumError struct {
	// Offset is the byte offset of the failing word in Data.
	Offset   int
	Received uint8
	Expected uint8
	// Data is the complete received buffer.
	Data []byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("crc: checksum mismatch at offset %d, received 0x%02X, expected 0x%02X, data % X",
		e.Offset, e.Received, e.Expected, e.Data)
}

// Is makes errors.Is(err, ErrChecksum) report true.
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}

// Interleave copies data[:offset] untouched and inserts fn(word) after every two
// bytes of data[offset:]. A trailing odd byte is followed by the checksum of that
// byte alone, so the frame length is always ReadLength(len(data)-offset)+offset.
//
// A nil fn returns data unchanged. Empty data returns nil.
func Interleave(data []byte, offset int, fn Func) []byte {
	if len(data) == 0 {
		return nil
	}
	if fn == nil {
		return data
	}
	offset = min(max(offset, 0), len(data))

	payload := data[offset:]
	out := make([]byte, 0, offset+ReadLength(len(payload)))
	out = append(out, data[:offset]...)

	for i := 0; i < len(payload); i += 2 {
		word := payload[i:min(i+2, len(payload))]
		out = append(out, word...)
		out = append(out, fn(word))
	}

	return out
}

// Strip validates and removes the checksums of data made of 3-byte words
// (2 data bytes, 1 checksum byte). A final 2-byte group is one data byte followed
// by its checksum, the inverse of Interleave for an odd payload.
//
// It returns ErrFrameLength when len(data) leaves a single byte after the last
// group and a *ChecksumError for the first mismatching group. Nil is returned
// when no data bytes remain. A nil fn returns data unchanged.
func Strip(data []byte, fn Func) ([]byte, error) {
	if fn == nil {
		return data, nil
	}
	if len(data)%3 == 1 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrFrameLength, len(data))
	}
	if len(data) == 0 {
		return nil, nil
	}

	out := make([]byte, 0, len(data)-(len(data)+2)/3)
	for i := 0; i < len(data); i += 3 {
		end := min(i+3, len(data))
		word := data[i : end-1]
		expected := fn(word)
		if data[end-1] != expected {
			return nil, &ChecksumError{Offset: i, Received: data[end-1], Expected: expected, Data: data}
		}
		out = append(out, word...)
	}

	return out, nil
}

// PayloadLength returns the number of data bytes carried by a checksummed frame
// of n bytes, the inverse of ReadLength.
func PayloadLength(n int) int {
	return n - (n+2)/3
}

// ReadLength returns the number of bytes to read from the bus for a response
// of n payload bytes, ceil(n*3/2).
func ReadLength(n int) int {
	return (n*3 + 1) / 2
}
