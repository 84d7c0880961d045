package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// MAC returns HMAC-SHA-256(key, message).
func MAC(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// Sum256 returns the SHA-256 digest of data as a slice.
func Sum256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
