// Package blueprint implements granular blueprints: a payload encrypted
// under Argon2id(key || assemblerSecret, salt), where the 16-byte assembler
// secret travels inside the artifact masked by sha256(nonce)[0:16].
//
// Wire format, five dot-separated fields:
//
//	salt_hex . base62(ciphertext) . base62(nonce) . base62(tag) . base62(maskedSecret)
//
// The mask ties the assembler secret to the nonce: altering the nonce
// changes the recovered secret, and with it the derived key.
package blueprint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/codec"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
)

// FieldCount is the number of dot-separated fields in a blueprint.
const FieldCount = 5

// maxNonceAttempts bounds the redraws made when a ciphertext would start
// with a zero byte, which base62 cannot carry.
const maxNonceAttempts = 16

// Fields holds the decoded parts of a blueprint.
type Fields struct {
	Salt         []byte
	Ciphertext   []byte
	Nonce        []byte
	Tag          []byte
	MaskedSecret []byte
}

// String renders f in the blueprint wire format.
func (f Fields) String() string {
	return strings.Join([]string{
		hex.EncodeToString(f.Salt),
		codec.EncodeBase62(f.Ciphertext),
		codec.EncodeBase62(f.Nonce),
		codec.EncodeBase62(f.Tag),
		codec.EncodeBase62(f.MaskedSecret),
	}, ".")
}

// Parse splits and decodes a blueprint.
func Parse(bp string) (Fields, error) {
	parts := strings.Split(bp, ".")
	if len(parts) != FieldCount {
		return Fields{}, apierrors.Malformed(apierrors.ArtifactBlueprint,
			fmt.Sprintf("expected %d fields, got %d", FieldCount, len(parts)), nil)
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil || len(salt) == 0 {
		return Fields{}, apierrors.Malformed(apierrors.ArtifactBlueprint, "salt", err)
	}

	ciphertext, err := codec.DecodeBase62(parts[1])
	if err != nil {
		return Fields{}, apierrors.Malformed(apierrors.ArtifactBlueprint, "ciphertext", err)
	}
	// Create never emits a ciphertext with a leading zero byte, so the
	// zero value can only stand for an empty ciphertext.
	if len(ciphertext) == 1 && ciphertext[0] == 0 {
		ciphertext = ciphertext[:0]
	}

	nonce, err := codec.DecodeBase62Fixed(parts[2], crypto.AESNonceSize)
	if err != nil {
		return Fields{}, apierrors.Malformed(apierrors.ArtifactBlueprint, "nonce", err)
	}

	tag, err := codec.DecodeBase62Fixed(parts[3], crypto.AESTagSize)
	if err != nil {
		return Fields{}, apierrors.Malformed(apierrors.ArtifactBlueprint, "tag", err)
	}

	masked, err := codec.DecodeBase62Fixed(parts[4], crypto.AssemblerSecretSize)
	if err != nil {
		return Fields{}, apierrors.Malformed(apierrors.ArtifactBlueprint, "masked secret", err)
	}

	return Fields{
		Salt:         salt,
		Ciphertext:   ciphertext,
		Nonce:        nonce,
		Tag:          tag,
		MaskedSecret: masked,
	}, nil
}

// Engine creates and reconstructs blueprints. It is safe for concurrent use.
type Engine struct {
	kdf crypto.KDFParams
}

// New returns an Engine that derives keys with kdf.
func New(kdf crypto.KDFParams) *Engine {
	return &Engine{kdf: kdf}
}

// Create encrypts plaintext under key, which must be 32 bytes.
// Two calls with identical inputs produce different blueprints.
func (e *Engine) Create(plaintext, key []byte) (string, error) {
	if len(key) != crypto.KeySize {
		return "", apierrors.InvalidArgument("blueprint.Create", "key must be %d bytes, got %d", crypto.KeySize, len(key))
	}

	salt := crypto.RandomBytes(crypto.SaltSize)
	assemblerSecret := crypto.RandomBytes(crypto.AssemblerSecretSize)
	defer crypto.Wipe(assemblerSecret)

	derivedKey, err := e.deriveKey(key, assemblerSecret, salt)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(derivedKey)

	for attempt := 0; attempt < maxNonceAttempts; attempt++ {
		nonce := crypto.RandomBytes(crypto.AESNonceSize)

		ciphertext, tag, err := crypto.Seal(derivedKey, nonce, plaintext)
		if err != nil {
			return "", err
		}
		if len(ciphertext) > 0 && ciphertext[0] == 0 {
			continue
		}

		masked, err := codec.XOREqual(assemblerSecret, nonceMask(nonce))
		if err != nil {
			return "", apierrors.InvalidArgument("blueprint.Create", "%v", err)
		}

		return Fields{
			Salt:         salt,
			Ciphertext:   ciphertext,
			Nonce:        nonce,
			Tag:          tag,
			MaskedSecret: masked,
		}.String(), nil
	}

	return "", fmt.Errorf("blueprint: no usable nonce after %d attempts", maxNonceAttempts)
}

// Reconstruct recovers the plaintext of bp under key.
//
// Errors distinguish the failure: *apierrors.MalformedInputError for
// undecodable input, *apierrors.AuthenticationError for a wrong key or
// tampered artifact, *apierrors.KDFError for a failed derivation.
func (e *Engine) Reconstruct(bp string, key []byte) ([]byte, error) {
	if len(key) != crypto.KeySize {
		return nil, apierrors.InvalidArgument("blueprint.Reconstruct", "key must be %d bytes, got %d", crypto.KeySize, len(key))
	}

	f, err := Parse(bp)
	if err != nil {
		return nil, err
	}

	assemblerSecret, err := codec.XOREqual(f.MaskedSecret, nonceMask(f.Nonce))
	if err != nil {
		return nil, apierrors.Malformed(apierrors.ArtifactBlueprint, "masked secret", err)
	}
	defer crypto.Wipe(assemblerSecret)

	derivedKey, err := e.deriveKey(key, assemblerSecret, f.Salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(derivedKey)

	plaintext, err := crypto.Open(derivedKey, f.Nonce, f.Ciphertext, f.Tag)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, &apierrors.AuthenticationError{Stage: "blueprint", Err: err}
		}
		return nil, err
	}
	return plaintext, nil
}

// ReconstructOrNil is Reconstruct with every failure collapsed to nil.
// It exists for callers that expect the "no result" contract.
func (e *Engine) ReconstructOrNil(bp string, key []byte) []byte {
	plaintext, err := e.Reconstruct(bp, key)
	if err != nil {
		return nil
	}
	return plaintext
}

func (e *Engine) deriveKey(key, assemblerSecret, salt []byte) ([]byte, error) {
	material := make([]byte, 0, len(key)+len(assemblerSecret))
	material = append(material, key...)
	material = append(material, assemblerSecret...)
	defer crypto.Wipe(material)

	return crypto.DeriveKey(material, salt, e.kdf)
}

func nonceMask(nonce []byte) []byte {
	return crypto.Sum256(nonce)[:crypto.AssemblerSecretSize]
}
