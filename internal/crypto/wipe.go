package crypto

import "github.com/awnumar/memguard"

// Wipe overwrites each buffer with zeros.
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		memguard.WipeBytes(b)
	}
}
