// Package codec implements the text encodings shared by the passvault wire
// formats.
//
// # Base62
//
// Base62 renders a byte string as a big-endian unsigned integer written with
// the alphabet 0-9A-Za-z, in exactly that order. The encoding carries the
// numeric value, not the byte length: leading zero bytes are not
// representable and are dropped on a round trip. Fixed-width fields use
// [DecodeBase62Fixed] to restore them. Base62 output never contains '.', so
// it is safe inside dot-separated artifacts.
//
// # XOR
//
// [XOR] truncates to the shorter operand. [XOREqual] rejects mismatched
// lengths and is the primitive used for all masking.
package codec
