package crypto

import (
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
)

// KDFParams holds the Argon2id cost parameters.
type KDFParams struct {
	// Time is the number of passes over memory.
	Time uint32
	// MemoryKiB is the memory cost in KiB.
	MemoryKiB uint32
	// Threads is the degree of parallelism.
	Threads uint8
	// KeyLen is the output length in bytes.
	KeyLen uint32
}

// DefaultKDFParams returns the parameters every passvault artifact is
// created with. Changing them makes existing artifacts unverifiable.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   2,
		KeyLen:    KeySize,
	}
}

// Validate reports whether Argon2id can run with p.
func (p KDFParams) Validate() error {
	switch {
	case p.Time < 1:
		return fmt.Errorf("%w: time must be at least 1", ErrInvalidKDFParams)
	case p.Threads < 1:
		return fmt.Errorf("%w: threads must be at least 1", ErrInvalidKDFParams)
	case p.MemoryKiB < 8*uint32(p.Threads):
		return fmt.Errorf("%w: memory must be at least 8 KiB per thread", ErrInvalidKDFParams)
	case p.KeyLen < 16:
		return fmt.Errorf("%w: key length must be at least 16 bytes", ErrInvalidKDFParams)
	}
	return nil
}

// DeriveKey runs Argon2id over secret and salt. It is deterministic for
// identical inputs. Failures are returned as *apierrors.KDFError.
func DeriveKey(secret, salt []byte, p KDFParams) (key []byte, err error) {
	if err := p.Validate(); err != nil {
		return nil, &apierrors.KDFError{Err: err}
	}

	// argon2 panics on allocation failure and invalid input
	defer func() {
		if r := recover(); r != nil {
			key = nil
			err = &apierrors.KDFError{Err: fmt.Errorf("argon2id: %v", r)}
		}
	}()

	return argon2.IDKey(secret, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen), nil
}
