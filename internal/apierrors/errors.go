// Package apierrors provides the error taxonomy shared by the passvault
// protocols and the public package.
package apierrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidArgument is returned when a caller supplies structurally
	// invalid input, such as a missing second passphrase in dual mode.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedInput is returned when a serialized artifact does not
	// parse into the expected field count or shape.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMalformedVoucher is returned when a voucher body cannot be decoded.
	// Every ErrMalformedVoucher also matches ErrMalformedInput.
	ErrMalformedVoucher = errors.New("malformed voucher")

	// ErrAuthentication is returned when an AEAD tag does not verify.
	ErrAuthentication = errors.New("authentication failed")

	// ErrKDF is returned when the memory-hard key derivation fails.
	ErrKDF = errors.New("key derivation failed")

	// ErrInvalidPassphrase is returned when a voucher is opened with a
	// passphrase that does not verify against its unlock hash.
	ErrInvalidPassphrase = errors.New("invalid passphrase")
)

// Artifact names the serialized structure a MalformedInputError refers to.
type Artifact string

const (
	ArtifactUnlockHash Artifact = "unlock hash"
	ArtifactBlueprint  Artifact = "blueprint"
	ArtifactVoucher    Artifact = "voucher"
	ArtifactSealed     Artifact = "sealed blueprint"
)

// ArgumentError describes a rejected caller argument.
type ArgumentError struct {
	Op      string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("invalid argument: %s", e.Message)
	}
	return fmt.Sprintf("%s: invalid argument: %s", e.Op, e.Message)
}

// Is implements errors.Is for sentinel error matching.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// InvalidArgument builds an *ArgumentError.
func InvalidArgument(op, format string, args ...any) error {
	return &ArgumentError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// MalformedInputError describes an artifact that failed to parse.
type MalformedInputError struct {
	Artifact Artifact
	Reason   string
	Err      error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s: %s: %v", e.Artifact, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s: %s", e.Artifact, e.Reason)
}

// Unwrap returns the underlying error.
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
// Voucher parse failures match both ErrMalformedInput and ErrMalformedVoucher.
func (e *MalformedInputError) Is(target error) bool {
	if target == ErrMalformedInput {
		return true
	}
	return target == ErrMalformedVoucher && e.Artifact == ArtifactVoucher
}

// Malformed builds a *MalformedInputError.
func Malformed(artifact Artifact, reason string, err error) error {
	return &MalformedInputError{Artifact: artifact, Reason: reason, Err: err}
}

// AuthenticationError reports which layer failed tag verification.
type AuthenticationError struct {
	Stage string // "payload", "ek", "blueprint"
	Err   error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed at %s", e.Stage)
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// KDFError wraps a failure of the memory-hard hash.
type KDFError struct {
	Err error
}

func (e *KDFError) Error() string {
	return fmt.Sprintf("key derivation failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *KDFError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *KDFError) Is(target error) bool {
	return target == ErrKDF
}
