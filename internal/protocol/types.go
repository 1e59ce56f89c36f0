package protocol

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Type is the wire codec for values of T. Implementations are stateless
// (aside from configuration such as a maximum length) and safe to share.
type Type[T any] interface {
	// Name is used to describe the type in decoding errors.
	Name() string
	Append(dst []byte, v T) []byte
	// Decode reads one value from the front of src, returning the number of
	// bytes consumed.
	Decode(src []byte) (T, int, error)
}

// DefaultMaxStringLength is the longest string (in characters) the protocol allows.
const DefaultMaxStringLength = 32767

var (
	Bool    Type[bool]    = boolType{}
	Byte    Type[int8]    = byteType{}
	UByte   Type[uint8]   = ubyteType{}
	Short   Type[int16]   = shortType{}
	UShort  Type[uint16]  = ushortType{}
	Int     Type[int32]   = intType{}
	Long    Type[int64]   = longType{}
	Float   Type[float32] = floatType{}
	Double  Type[float64] = doubleType{}
	VarInt  Type[int32]   = varIntType{}
	VarLong Type[int64]   = varLongType{}
	// Chat carries JSON text components, which have a larger limit.
	Chat       = String(262144)
	Identifier = String(DefaultMaxStringLength)
	// BlockPosition is the packed x/z/y position used since 1.14.
	BlockPosition Type[Position] = positionType{}
)

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Append(dst []byte, v bool) []byte {
	if v {
		return append(dst, 0x01)
	}
	return append(dst, 0x00)
}

func (boolType) Decode(src []byte) (bool, int, error) {
	if len(src) < 1 {
		return false, 0, ErrTruncated
	}
	switch src[0] {
	case 0x00:
		return false, 1, nil
	case 0x01:
		return true, 1, nil
	}
	return false, 0, ErrInvalidBool
}

type byteType struct{}

func (byteType) Name() string { return "byte" }

func (byteType) Append(dst []byte, v int8) []byte { return append(dst, byte(v)) }

func (byteType) Decode(src []byte) (int8, int, error) {
	if len(src) < 1 {
		return 0, 0, ErrTruncated
	}
	return int8(src[0]), 1, nil
}

type ubyteType struct{}

func (ubyteType) Name() string { return "unsigned byte" }

func (ubyteType) Append(dst []byte, v uint8) []byte { return append(dst, v) }

func (ubyteType) Decode(src []byte) (uint8, int, error) {
	if len(src) < 1 {
		return 0, 0, ErrTruncated
	}
	return src[0], 1, nil
}

type shortType struct{}

func (shortType) Name() string { return "short" }

func (shortType) Append(dst []byte, v int16) []byte {
	return binary.BigEndian.AppendUint16(dst, uint16(v))
}

func (shortType) Decode(src []byte) (int16, int, error) {
	if len(src) < 2 {
		return 0, 0, ErrTruncated
	}
	return int16(binary.BigEndian.Uint16(src)), 2, nil
}

type ushortType struct{}

func (ushortType) Name() string { return "unsigned short" }

func (ushortType) Append(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

func (ushortType) Decode(src []byte) (uint16, int, error) {
	if len(src) < 2 {
		return 0, 0, ErrTruncated
	}
	return binary.BigEndian.Uint16(src), 2, nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Append(dst []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(dst, uint32(v))
}

func (intType) Decode(src []byte) (int32, int, error) {
	if len(src) < 4 {
		return 0, 0, ErrTruncated
	}
	return int32(binary.BigEndian.Uint32(src)), 4, nil
}

type longType struct{}

func (longType) Name() string { return "long" }

func (longType) Append(dst []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(v))
}

func (longType) Decode(src []byte) (int64, int, error) {
	if len(src) < 8 {
		return 0, 0, ErrTruncated
	}
	return int64(binary.BigEndian.Uint64(src)), 8, nil
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Append(dst []byte, v float32) []byte {
	return binary.BigEndian.AppendUint32(dst, math.Float32bits(v))
}

func (floatType) Decode(src []byte) (float32, int, error) {
	if len(src) < 4 {
		return 0, 0, ErrTruncated
	}
	return math.Float32frombits(binary.BigEndian.Uint32(src)), 4, nil
}

type doubleType struct{}

func (doubleType) Name() string { return "double" }

func (doubleType) Append(dst []byte, v float64) []byte {
	return binary.BigEndian.AppendUint64(dst, math.Float64bits(v))
}

func (doubleType) Decode(src []byte) (float64, int, error) {
	if len(src) < 8 {
		return 0, 0, ErrTruncated
	}
	return math.Float64frombits(binary.BigEndian.Uint64(src)), 8, nil
}

type varIntType struct{}

func (varIntType) Name() string { return "varint" }

func (varIntType) Append(dst []byte, v int32) []byte { return AppendVarInt(dst, v) }

func (varIntType) Decode(src []byte) (int32, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrTruncated
	}
	return DecodeVarInt(src)
}

type varLongType struct{}

func (varLongType) Name() string { return "varlong" }

func (varLongType) Append(dst []byte, v int64) []byte { return AppendVarLong(dst, v) }

func (varLongType) Decode(src []byte) (int64, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrTruncated
	}
	return DecodeVarLong(src)
}

type stringType struct {
	maxLen int
}

// String returns a VarInt length-prefixed UTF-8 string type that rejects
// values longer than maxLen characters.
func String(maxLen int) Type[string] {
	return stringType{maxLen: maxLen}
}

func (stringType) Name() string { return "string" }

// Append truncates v to maxLen characters, the most Decode accepts.
func (s stringType) Append(dst []byte, v string) []byte {
	if s.maxLen > 0 {
		v = truncateRunes(v, s.maxLen)
	}
	dst = AppendVarInt(dst, int32(len(v)))
	return append(dst, v...)
}

func truncateRunes(v string, n int) string {
	for i := range v {
		if n == 0 {
			return v[:i]
		}
		n--
	}
	return v
}

func (s stringType) Decode(src []byte) (string, int, error) {
	if len(src) == 0 {
		return "", 0, ErrTruncated
	}
	n, read, err := DecodeVarInt(src)
	if err != nil {
		return "", 0, err
	}
	if n < 0 {
		return "", 0, ErrNegativeLength
	}
	// A character is at most 4 bytes of UTF-8.
	if s.maxLen > 0 && int(n) > s.maxLen*4 {
		return "", 0, ErrStringTooLong
	}
	if len(src)-read < int(n) {
		return "", 0, ErrTruncated
	}

	raw := src[read : read+int(n)]
	if !utf8.Valid(raw) {
		return "", 0, ErrInvalidUTF8
	}
	if s.maxLen > 0 && utf8.RuneCount(raw) > s.maxLen {
		return "", 0, ErrStringTooLong
	}
	return string(raw), read + int(n), nil
}

type bytesType struct {
	count func() int
}

// Bytes returns a byte array type whose length is supplied by count at decode
// time, usually by reading a length field decoded earlier in the same packet.
// Encoding writes the slice as-is.
func Bytes(count func() int) Type[[]byte] {
	return bytesType{count: count}
}

func (bytesType) Name() string { return "byte array" }

func (bytesType) Append(dst []byte, v []byte) []byte { return append(dst, v...) }

func (b bytesType) Decode(src []byte) ([]byte, int, error) {
	n := b.count()
	if n < 0 {
		return nil, 0, ErrNegativeLength
	}
	if len(src) < n {
		return nil, 0, ErrTruncated
	}
	v := make([]byte, n)
	copy(v, src[:n])
	return v, n, nil
}

type paddedStringType struct {
	width int
}

// PaddedString returns a string type occupying a constant-width slot:
// VarInt(width) followed by exactly width bytes. Longer content is truncated
// and shorter content is padded with zero bytes.
func PaddedString(width int) Type[string] {
	return paddedStringType{width: width}
}

func (paddedStringType) Name() string { return "padded string" }

func (p paddedStringType) Append(dst []byte, v string) []byte {
	dst = AppendVarInt(dst, int32(p.width))
	if len(v) > p.width {
		// Cut on a character boundary so the slot stays valid UTF-8.
		end := p.width
		for end > 0 && !utf8.RuneStart(v[end]) {
			end--
		}
		v = v[:end]
	}
	dst = append(dst, v...)
	for i := len(v); i < p.width; i++ {
		dst = append(dst, 0x00)
	}
	return dst
}

func (p paddedStringType) Decode(src []byte) (string, int, error) {
	if len(src) == 0 {
		return "", 0, ErrTruncated
	}
	n, read, err := DecodeVarInt(src)
	if err != nil {
		return "", 0, err
	}
	if n < 0 {
		return "", 0, ErrNegativeLength
	}
	if len(src)-read < int(n) {
		return "", 0, ErrTruncated
	}

	raw := src[read : read+int(n)]
	end := len(raw)
	for end > 0 && raw[end-1] == 0x00 {
		end--
	}
	if !utf8.Valid(raw[:end]) {
		return "", 0, ErrInvalidUTF8
	}
	return string(raw[:end]), read + int(n), nil
}

// Position is a block coordinate.
type Position struct {
	X, Y, Z int32
}

type positionType struct{}

func (positionType) Name() string { return "position" }

func (positionType) Append(dst []byte, v Position) []byte {
	packed := (int64(v.X)&0x3FFFFFF)<<38 | (int64(v.Z)&0x3FFFFFF)<<12 | int64(v.Y)&0xFFF
	return binary.BigEndian.AppendUint64(dst, uint64(packed))
}

func (positionType) Decode(src []byte) (Position, int, error) {
	if len(src) < 8 {
		return Position{}, 0, ErrTruncated
	}
	packed := int64(binary.BigEndian.Uint64(src))
	return Position{
		X: int32(packed >> 38),
		Y: int32(packed << 52 >> 52),
		Z: int32(packed << 26 >> 38),
	}, 8, nil
}
