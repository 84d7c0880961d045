package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// randReader is the random source for salts, nonces and keys.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

// Reader returns the random source in effect.
func Reader() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// RandomBytes returns n bytes from the secure random source.
// It panics if the source fails; a weaker fallback is never used.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader(), b); err != nil {
		panic(fmt.Sprintf("crypto: secure random source failed: %v", err))
	}
	return b
}
