package polyline

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when the input ends before a value is fully read.
	ErrTruncated = errors.New("polyline: truncated input")

	// ErrInvalidByte is returned for a byte outside the encoding alphabet (63..126).
	ErrInvalidByte = errors.New("polyline: invalid byte")

	// ErrOverflow is returned when a value does not fit a signed 32-bit integer.
	ErrOverflow = errors.New("polyline: value overflows 32 bits")

	// ErrPrecision is returned by NewCodec for an unsupported precision.
	ErrPrecision = errors.New("polyline: unsupported precision")
)

// DecodeError describes where decoding failed.
type DecodeError struct {
	Offset int  // byte offset in the encoded input
	Byte   byte // offending byte, set for ErrInvalidByte only
	Err    error
}

func (e *DecodeError) Error() string {
	if errors.Is(e.Err, ErrInvalidByte) {
		return fmt.Sprintf("%v 0x%02x at offset %d", e.Err, e.Byte, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError describes which coordinate could not be encoded.
type EncodeError struct {
	Index int // position in the input sequence
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%v at coordinate %d", e.Err, e.Index)
}

func (e *EncodeError) Unwrap() error { return e.Err }
