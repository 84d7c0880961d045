package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Base62Alphabet is the digit ordering of the wire format.
const Base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var (
	// ErrInvalidBase62 is returned when a string is empty or contains a
	// character outside Base62Alphabet.
	ErrInvalidBase62 = errors.New("invalid base62")

	// ErrValueTooLarge is returned by DecodeBase62Fixed when the decoded
	// value does not fit in the requested width.
	ErrValueTooLarge = errors.New("base62 value exceeds field width")
)

var base62Radix = big.NewInt(62)

// EncodeBase62 encodes b as a base62 big-endian integer.
// Empty input and all-zero input encode to "0".
func EncodeBase62(b []byte) string {
	num := new(big.Int).SetBytes(b)
	if num.Sign() == 0 {
		return "0"
	}

	var digits []byte
	mod := new(big.Int)
	for num.Sign() > 0 {
		num.QuoRem(num, base62Radix, mod)
		digits = append(digits, Base62Alphabet[mod.Int64()])
	}

	// most significant digit was computed last
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// DecodeBase62 decodes s into the minimal big-endian rendering of its
// value. A zero value decodes to a single 0x00 byte.
func DecodeBase62(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidBase62)
	}

	num := new(big.Int)
	digit := new(big.Int)
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(Base62Alphabet, s[i])
		if idx < 0 {
			return nil, fmt.Errorf("%w: character %q at offset %d", ErrInvalidBase62, s[i], i)
		}
		num.Mul(num, base62Radix)
		num.Add(num, digit.SetInt64(int64(idx)))
	}

	out := num.Bytes()
	if len(out) == 0 {
		return []byte{0}, nil
	}
	return out, nil
}

// DecodeBase62Fixed decodes s and left-pads the result with zero bytes to
// exactly size bytes.
func DecodeBase62Fixed(s string, size int) ([]byte, error) {
	raw, err := DecodeBase62(s)
	if err != nil {
		return nil, err
	}

	// the zero value renders as one byte and fits any positive width
	if len(raw) == 1 && raw[0] == 0 {
		raw = raw[:0]
	}
	if len(raw) > size {
		return nil, fmt.Errorf("%w: got %d bytes, want at most %d", ErrValueTooLarge, len(raw), size)
	}

	out := make([]byte, size)
	copy(out[size-len(raw):], raw)
	return out, nil
}
