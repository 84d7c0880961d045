package passvault

import (
	"fmt"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/pqc"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidArgument is returned for structurally invalid input, such as
	// a missing second passphrase in dual mode or a key of the wrong size.
	ErrInvalidArgument = apierrors.ErrInvalidArgument

	// ErrMalformedInput is returned when an unlock hash, blueprint, voucher
	// or sealed blueprint does not parse.
	ErrMalformedInput = apierrors.ErrMalformedInput

	// ErrMalformedVoucher is returned when a voucher body does not decode.
	// It always accompanies ErrMalformedInput.
	ErrMalformedVoucher = apierrors.ErrMalformedVoucher

	// ErrAuthentication is returned when an AEAD tag does not verify: a
	// wrong key, or a tampered artifact.
	ErrAuthentication = apierrors.ErrAuthentication

	// ErrKDF is returned when Argon2id fails. It is not retried.
	ErrKDF = apierrors.ErrKDF

	// ErrInvalidPassphrase is returned when a voucher is opened with a
	// passphrase that does not verify against its unlock hash.
	ErrInvalidPassphrase = apierrors.ErrInvalidPassphrase

	// ErrUnsupportedSuite is returned for an unknown post-quantum suite.
	ErrUnsupportedSuite = pqc.ErrUnsupportedSuite

	// ErrInvalidKeySize is returned when post-quantum key material has the
	// wrong length for the suite.
	ErrInvalidKeySize = pqc.ErrInvalidKeySize

	// ErrSignatureInvalid is returned when a voucher signature does not
	// verify.
	ErrSignatureInvalid = pqc.ErrSignatureVerificationFailed
)

// Error types carrying context. Each matches its sentinel with errors.Is.
type (
	// ArgumentError describes a rejected argument.
	ArgumentError = apierrors.ArgumentError
	// MalformedInputError names the artifact that failed to parse and why.
	MalformedInputError = apierrors.MalformedInputError
	// AuthenticationError names the layer whose tag did not verify:
	// "payload" or "ek" for vouchers, "blueprint" for blueprints.
	AuthenticationError = apierrors.AuthenticationError
	// KDFError wraps an Argon2id failure.
	KDFError = apierrors.KDFError
)

// SignatureVerificationError indicates a voucher whose signature does not
// verify, which may mean tampering.
type SignatureVerificationError struct {
	Suite string
	Err   error
}

func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("voucher signature verification failed (%s): %v", e.Suite, e.Err)
}

// Unwrap returns the underlying error.
func (e *SignatureVerificationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *SignatureVerificationError) Is(target error) bool {
	return target == ErrSignatureInvalid
}
