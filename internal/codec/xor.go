package codec

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned by XOREqual for operands of different length.
var ErrLengthMismatch = errors.New("xor operands differ in length")

// XOR combines a and b byte by byte. The result has length
// min(len(a), len(b)); the longer operand is truncated.
func XOR(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// XOREqual combines two equal-length operands.
func XOREqual(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	return XOR(a, b), nil
}
