package crypto

import "errors"

var (
	// ErrDecryptionFailed is returned when an AEAD tag does not verify.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrInvalidTagSize is returned when the authentication tag size is invalid.
	ErrInvalidTagSize = errors.New("invalid tag size")

	// ErrInvalidKDFParams is returned for Argon2id parameters the hash
	// cannot run with.
	ErrInvalidKDFParams = errors.New("invalid kdf parameters")
)
