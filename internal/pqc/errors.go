package pqc

import "errors"

var (
	// ErrUnsupportedSuite is returned by Init for an unknown suite name.
	ErrUnsupportedSuite = errors.New("unsupported pqc suite")

	// ErrInvalidKeySize is returned when a public or private key has the
	// wrong length for the suite.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidCiphertextSize is returned when a KEM ciphertext has the
	// wrong length for the suite.
	ErrInvalidCiphertextSize = errors.New("invalid ciphertext size")

	// ErrInvalidSignatureSize is returned when a signature has the wrong
	// length for the suite.
	ErrInvalidSignatureSize = errors.New("invalid signature size")

	// ErrSignatureVerificationFailed is returned when a signature does
	// not verify.
	ErrSignatureVerificationFailed = errors.New("signature verification failed")
)
