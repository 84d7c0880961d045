// Package matrix derives blueprint keys from a list of text entries, such
// as the lines of a poem, by selecting a random subset of them.
//
// The derivation is SHA-256 over the chosen entries and a key identifier.
// It has no memory hardness; its strength is the entropy of the entry
// selection and of the entries themselves. It is a separate path from the
// Argon2id derivations used everywhere else.
package matrix

import (
	"encoding/binary"
	"math"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
)

// Matrix is an immutable list of entries.
type Matrix struct {
	entries []string
}

// New returns a Matrix over entries. Empty entries are rejected since
// they contribute nothing to a key.
func New(entries []string) (*Matrix, error) {
	if len(entries) == 0 {
		return nil, apierrors.InvalidArgument("matrix.New", "no entries")
	}
	for i, e := range entries {
		if e == "" {
			return nil, apierrors.InvalidArgument("matrix.New", "entry %d is empty", i)
		}
	}
	return &Matrix{entries: append([]string(nil), entries...)}, nil
}

// Len returns the number of entries.
func (m *Matrix) Len() int {
	return len(m.entries)
}

// Pick returns n distinct entry indices drawn from the secure random
// source, in draw order.
func (m *Matrix) Pick(n int) ([]int, error) {
	if n <= 0 || n > len(m.entries) {
		return nil, apierrors.InvalidArgument("matrix.Pick", "n must be in [1, %d], got %d", len(m.entries), n)
	}

	// partial Fisher-Yates over the index space
	pool := make([]int, len(m.entries))
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + uniform(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n], nil
}

// Key derives a 32-byte key from the entries at indices and keyID.
// The same indices and keyID always yield the same key.
func (m *Matrix) Key(indices []int, keyID string) ([]byte, error) {
	if len(indices) == 0 {
		return nil, apierrors.InvalidArgument("matrix.Key", "no indices")
	}

	var material []byte
	for _, i := range indices {
		if i < 0 || i >= len(m.entries) {
			return nil, apierrors.InvalidArgument("matrix.Key", "index %d out of range [0, %d)", i, len(m.entries))
		}
		material = append(material, m.entries[i]...)
	}
	material = append(material, keyID...)
	defer crypto.Wipe(material)

	return crypto.Sum256(material), nil
}

// uniform returns a value in [0, n) without modulo bias.
func uniform(n int) int {
	limit := math.MaxUint32 - math.MaxUint32%uint32(n)
	for {
		v := binary.BigEndian.Uint32(crypto.RandomBytes(4))
		if v < limit {
			return int(v % uint32(n))
		}
	}
}
