package db

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Key Types
// --------------------------------------------------------------------------

// KeyType describes how the bytes of a fixed-width key are interpreted for ordering
type KeyType int

const (
	KeyTypeNumericSigned        KeyType = iota // little-endian two's complement integer
	KeyTypeNumericUnsigned                     // little-endian unsigned integer
	KeyTypeCharArray                           // raw bytes, compared lexicographically
	KeyTypeNullTerminatedString                // string, compared up to the first NUL byte
)

func (k KeyType) String() string {
	switch k {
	case KeyTypeNumericSigned:
		return "signed"
	case KeyTypeNumericUnsigned:
		return "unsigned"
	case KeyTypeCharArray:
		return "chararray"
	case KeyTypeNullTerminatedString:
		return "string"
	default:
		return "unknown"
	}
}

// ParseKeyType converts the textual name of a key type (see KeyType.String) back to a KeyType
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signed", "int":
		return KeyTypeNumericSigned, nil
	case "unsigned", "uint":
		return KeyTypeNumericUnsigned, nil
	case "chararray", "bytes":
		return KeyTypeCharArray, nil
	case "string", "str":
		return KeyTypeNullTerminatedString, nil
	default:
		return 0, fmt.Errorf("%w: unknown key type %q (expected one of signed, unsigned, chararray, string)", ErrInvalidArgument, s)
	}
}

// --------------------------------------------------------------------------
// Comparators
// --------------------------------------------------------------------------

// CompareFunc orders two keys of equal width.
// It returns a negative number if a < b, zero if a == b and a positive number if a > b.
type CompareFunc func(a, b []byte) int

// ComparatorFor returns the comparator matching the key type
func ComparatorFor(k KeyType) CompareFunc {
	switch k {
	case KeyTypeNumericSigned:
		return CompareSigned
	case KeyTypeNumericUnsigned:
		return CompareUnsigned
	case KeyTypeNullTerminatedString:
		return CompareNullTerminated
	default:
		return bytes.Compare
	}
}

// CompareSigned compares little-endian two's complement integers of any width
func CompareSigned(a, b []byte) int {
	n := min(len(a), len(b))
	if n == 0 {
		return len(a) - len(b)
	}

	// the most significant byte carries the sign
	sa, sb := int8(a[n-1]), int8(b[n-1])
	if sa != sb {
		if sa < sb {
			return -1
		}
		return 1
	}
	return compareLittleEndian(a[:n-1], b[:n-1])
}

// CompareUnsigned compares little-endian unsigned integers of any width
func CompareUnsigned(a, b []byte) int {
	n := min(len(a), len(b))
	return compareLittleEndian(a[:n], b[:n])
}

// compareLittleEndian compares equally sized little-endian magnitudes, most significant byte first
func compareLittleEndian(a, b []byte) int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareNullTerminated compares two strings up to the first NUL byte (or the full width)
func CompareNullTerminated(a, b []byte) int {
	if i := bytes.IndexByte(a, 0); i >= 0 {
		a = a[:i]
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return bytes.Compare(a, b)
}

// --------------------------------------------------------------------------
// Text Conversion
// --------------------------------------------------------------------------

// EncodeKey converts a textual key into its fixed-width byte representation.
// Numeric keys are parsed as integers (decimal, 0x.. or 0b..) and must fit into size bytes.
// String keys are zero padded and must not be longer than size.
func EncodeKey(k KeyType, size int, text string) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: key size must be positive, got %d", ErrInvalidArgument, size)
	}
	out := make([]byte, size)

	switch k {
	case KeyTypeNumericSigned:
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		if size < 8 {
			limit := int64(1) << (8*size - 1)
			if v < -limit || v >= limit {
				return nil, fmt.Errorf("%w: %d does not fit into %d signed bytes", ErrInvalidArgument, v, size)
			}
		}
		fill := byte(0)
		if v < 0 {
			fill = 0xFF
		}
		for i := 0; i < size; i++ {
			if i < 8 {
				out[i] = byte(uint64(v) >> (8 * i))
			} else {
				out[i] = fill
			}
		}
	case KeyTypeNumericUnsigned:
		v, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		if size < 8 && v >= uint64(1)<<(8*size) {
			return nil, fmt.Errorf("%w: %d does not fit into %d unsigned bytes", ErrInvalidArgument, v, size)
		}
		for i := 0; i < size && i < 8; i++ {
			out[i] = byte(v >> (8 * i))
		}
	default:
		if len(text) > size {
			return nil, fmt.Errorf("%w: key %q is longer than %d bytes", ErrInvalidArgument, text, size)
		}
		copy(out, text)
	}
	return out, nil
}

// FormatKey renders a fixed-width key as text (the inverse of EncodeKey).
// Numeric keys wider than 8 bytes are rendered as hex.
func FormatKey(k KeyType, key []byte) string {
	switch k {
	case KeyTypeNumericSigned, KeyTypeNumericUnsigned:
		if len(key) == 0 || len(key) > 8 {
			return "0x" + hex.EncodeToString(key)
		}
		var v uint64
		for i := len(key) - 1; i >= 0; i-- {
			v = v<<8 | uint64(key[i])
		}
		if k == KeyTypeNumericUnsigned {
			return strconv.FormatUint(v, 10)
		}
		// sign extend
		shift := 64 - 8*len(key)
		return strconv.FormatInt(int64(v<<shift)>>shift, 10)
	default:
		return string(bytes.TrimRight(key, "\x00"))
	}
}
