package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ExpandKey derives a key using HKDF-SHA-512.
func ExpandKey(secret, salt, info []byte, length int) ([]byte, error) {
	if len(salt) == 0 {
		salt = make([]byte, sha512.Size)
	}

	reader := hkdf.New(sha512.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}

// ExpandKEMSecret turns a KEM shared secret into a 32-byte symmetric key.
//
// The key derivation uses:
//   - IKM: the KEM shared secret
//   - Salt: SHA-256 hash of the KEM ciphertext
//   - Info: the context string
func ExpandKEMSecret(sharedSecret, kemCiphertext []byte, context string) ([]byte, error) {
	saltHash := sha256.Sum256(kemCiphertext)
	return ExpandKey(sharedSecret, saltHash[:], []byte(context), KeySize)
}
