package protocol

import (
	"errors"
	"io"
)

const (
	// MaxVarIntLen is the longest legal encoding of a 32-bit VarInt.
	MaxVarIntLen = 5
	// MaxVarLongLen is the longest legal encoding of a 64-bit VarLong.
	MaxVarLongLen = 10
)

// AppendVarInt appends the VarInt encoding of v to dst. Negative values are
// encoded from their two's complement bit pattern and always take 5 bytes.
func AppendVarInt(dst []byte, v int32) []byte {
	u := uint32(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// EncodeVarInt returns the VarInt encoding of v.
func EncodeVarInt(v int32) []byte {
	return AppendVarInt(make([]byte, 0, MaxVarIntLen), v)
}

// VarIntSize returns the number of bytes EncodeVarInt(v) would produce.
func VarIntSize(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// DecodeVarInt decodes a VarInt from the start of src and returns the value
// along with the number of bytes consumed. At most MaxVarIntLen bytes of src
// are ever examined.
func DecodeVarInt(src []byte) (int32, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrEmptySource
	}

	var u uint32
	for i := 0; i < MaxVarIntLen; i++ {
		if i >= len(src) {
			return 0, 0, ErrTruncated
		}
		b := src[i]
		u |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(u), i + 1, nil
		}
	}
	return 0, 0, ErrOversizedVarInt
}

// ReadVarInt reads a VarInt one byte at a time from r. It never reads more
// than MaxVarIntLen bytes, so a stream of continuation bytes fails fast.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var u uint32
	for i := 0; i < MaxVarIntLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i > 0 && errors.Is(err, io.EOF) {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		u |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(u), nil
		}
	}
	return 0, ErrOversizedVarInt
}

// AppendVarLong appends the 64-bit variant of the VarInt encoding of v to dst.
func AppendVarLong(dst []byte, v int64) []byte {
	u := uint64(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// DecodeVarLong is the 64-bit counterpart of DecodeVarInt.
func DecodeVarLong(src []byte) (int64, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrEmptySource
	}

	var u uint64
	for i := 0; i < MaxVarLongLen; i++ {
		if i >= len(src) {
			return 0, 0, ErrTruncated
		}
		b := src[i]
		u |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int64(u), i + 1, nil
		}
	}
	return 0, 0, ErrOversizedVarLong
}
