package db

import (
	"errors"
	"testing"

	. "github.com/fulldump/biff"
)

func TestCompareSigned(t *testing.T) {
	minus1, _ := EncodeKey(KeyTypeNumericSigned, 4, "-1")
	zero, _ := EncodeKey(KeyTypeNumericSigned, 4, "0")
	big, _ := EncodeKey(KeyTypeNumericSigned, 4, "256")
	small, _ := EncodeKey(KeyTypeNumericSigned, 4, "255")

	AssertTrue(CompareSigned(minus1, zero) < 0)
	AssertTrue(CompareSigned(zero, minus1) > 0)
	AssertTrue(CompareSigned(small, big) < 0)
	AssertEqual(CompareSigned(big, big), 0)
}

func TestCompareUnsigned(t *testing.T) {
	// 0xFFFFFFFF is the largest unsigned value, but -1 when read as signed
	maxKey := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	one := []byte{1, 0, 0, 0}

	AssertTrue(CompareUnsigned(maxKey, one) > 0)
	AssertTrue(CompareSigned(maxKey, one) < 0)
	AssertTrue(CompareUnsigned([]byte{0, 1}, []byte{0xFF, 0}) > 0)
}

func TestCompareNullTerminated(t *testing.T) {
	AssertEqual(CompareNullTerminated([]byte("abc\x00x"), []byte("abc\x00y")), 0)
	AssertTrue(CompareNullTerminated([]byte("ab\x00\x00"), []byte("abc\x00")) < 0)
	AssertTrue(CompareNullTerminated([]byte("b\x00"), []byte("abc\x00")) > 0)
}

func TestComparatorFor(t *testing.T) {
	a, b := []byte{0x80}, []byte{0x01}

	AssertTrue(ComparatorFor(KeyTypeNumericSigned)(a, b) < 0)
	AssertTrue(ComparatorFor(KeyTypeNumericUnsigned)(a, b) > 0)
	AssertTrue(ComparatorFor(KeyTypeCharArray)(a, b) > 0)
}

func TestEncodeKey(t *testing.T) {
	key, err := EncodeKey(KeyTypeNumericSigned, 4, "-2")
	AssertNil(err)
	AssertEqual(key, []byte{0xFE, 0xFF, 0xFF, 0xFF})

	key, err = EncodeKey(KeyTypeNumericUnsigned, 2, "0x0102")
	AssertNil(err)
	AssertEqual(key, []byte{0x02, 0x01})

	key, err = EncodeKey(KeyTypeNullTerminatedString, 6, "abc")
	AssertNil(err)
	AssertEqual(key, []byte{'a', 'b', 'c', 0, 0, 0})

	// sign extension beyond 8 bytes
	key, err = EncodeKey(KeyTypeNumericSigned, 10, "-1")
	AssertNil(err)
	AssertEqual(key, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
}

func TestEncodeKey_Errors(t *testing.T) {
	_, err := EncodeKey(KeyTypeNumericSigned, 1, "128")
	AssertTrue(errors.Is(err, ErrInvalidArgument))

	_, err = EncodeKey(KeyTypeNumericUnsigned, 1, "256")
	AssertTrue(errors.Is(err, ErrInvalidArgument))

	_, err = EncodeKey(KeyTypeNumericUnsigned, 4, "-1")
	AssertTrue(errors.Is(err, ErrInvalidArgument))

	_, err = EncodeKey(KeyTypeCharArray, 2, "abc")
	AssertTrue(errors.Is(err, ErrInvalidArgument))

	_, err = EncodeKey(KeyTypeCharArray, 0, "")
	AssertTrue(errors.Is(err, ErrInvalidArgument))
}

func TestFormatKey(t *testing.T) {
	for _, text := range []string{"-129", "0", "42", "2147483647"} {
		key, err := EncodeKey(KeyTypeNumericSigned, 4, text)
		AssertNil(err)
		AssertEqual(FormatKey(KeyTypeNumericSigned, key), text)
	}

	AssertEqual(FormatKey(KeyTypeNumericUnsigned, []byte{0xFF, 0xFF}), "65535")
	AssertEqual(FormatKey(KeyTypeNullTerminatedString, []byte("hi\x00\x00")), "hi")
	AssertEqual(FormatKey(KeyTypeNumericSigned, make([]byte, 9)), "0x000000000000000000")
}

func TestParseKeyType(t *testing.T) {
	for _, k := range []KeyType{KeyTypeNumericSigned, KeyTypeNumericUnsigned, KeyTypeCharArray, KeyTypeNullTerminatedString} {
		parsed, err := ParseKeyType(k.String())
		AssertNil(err)
		AssertEqual(parsed, k)
	}

	_, err := ParseKeyType("float")
	AssertTrue(errors.Is(err, ErrInvalidArgument))
}
