package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySource      = errors.New("protocol: empty source")
	ErrOversizedVarInt  = errors.New("protocol: varint is longer than 5 bytes")
	ErrOversizedVarLong = errors.New("protocol: varlong is longer than 10 bytes")
	ErrTruncated        = errors.New("protocol: not enough bytes remaining")
	ErrInvalidUTF8      = errors.New("protocol: string is not valid utf-8")
	ErrNegativeLength   = errors.New("protocol: negative length prefix")
	ErrStringTooLong    = errors.New("protocol: string exceeds maximum length")
	ErrInvalidBool      = errors.New("protocol: boolean must be 0x00 or 0x01")
	ErrTrailingBytes    = errors.New("protocol: unread bytes after last field")
)

// FieldError identifies the field of a packet that could not be decoded.
type FieldError struct {
	Packet string
	Field  string
	Type   string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("decoding %s.%s (%s): %v", e.Packet, e.Field, e.Type, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
