// Package uniqueid generates random identifiers over a URL-safe alphabet.
package uniqueid

import (
	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
)

// Alphabet is the 64-symbol identifier alphabet.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

// DefaultLength is the identifier length used when callers have no
// preference. 21 symbols carry 126 bits.
const DefaultLength = 21

// Generate returns a random identifier of length symbols.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", apierrors.InvalidArgument("uniqueid.Generate", "length must be positive, got %d", length)
	}

	// len(Alphabet) is 64, so the low six bits of a byte map without bias
	raw := crypto.RandomBytes(length)
	id := make([]byte, length)
	for i, b := range raw {
		id[i] = Alphabet[b&63]
	}
	return string(id), nil
}
