package scanner

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"unsafe"
)

// Scalar is the closed set of value kinds a Session can search for
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Width returns the size of T in bytes, which is also its alignment in scans
func Width[T Scalar]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

func isSigned[T Scalar]() bool {
	var v T
	return ^v < 0
}

// Decode reads a little-endian T from the first Width[T]() bytes of b
func Decode[T Scalar](b []byte) T {
	switch Width[T]() {
	case 1:
		return T(b[0])
	case 2:
		return T(binary.LittleEndian.Uint16(b))
	case 4:
		return T(binary.LittleEndian.Uint32(b))
	default:
		return T(binary.LittleEndian.Uint64(b))
	}
}

// Encode returns the little-endian bytes of v
func Encode[T Scalar](v T) []byte {
	b := make([]byte, Width[T]())
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
	return b
}

// Parse reads a T from operator text. Decimal, 0x hex, 0o octal and 0b
// binary are accepted; values outside the range of T are rejected.
func Parse[T Scalar](s string) (T, error) {
	bits := Width[T]() * 8
	if isSigned[T]() {
		v, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", kindName[T](), s, err)
		}
		return T(v), nil
	}

	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", kindName[T](), s, err)
	}
	return T(v), nil
}

func kindName[T Scalar]() string {
	var v T
	return fmt.Sprintf("%T", v)
}
