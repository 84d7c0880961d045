package passvault

import (
	"errors"
	"strings"
	"time"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/codec"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
	"github.com/vaultsandbox/passvault-go/internal/pqc"
)

// SealedPrefix is the leading field of a sealed blueprint.
const SealedPrefix = "pq"

// voucherSignatureVersion is the first byte of a voucher signature
// transcript.
const voucherSignatureVersion = 1

// KeyPair holds marshalled post-quantum key material.
type KeyPair = pqc.KeyPair

// GenerateKEMKeyPair creates a key pair for SealBlueprint recipients.
func (p *Protector) GenerateKEMKeyPair() (*KeyPair, error) {
	return p.suite.GenerateKEMKeyPair()
}

// GenerateSigningKeyPair creates a key pair for SignVoucher.
func (p *Protector) GenerateSigningKeyPair() (*KeyPair, error) {
	return p.suite.GenerateSigningKeyPair()
}

// SealBlueprint creates a blueprint that only the holder of the private
// key matching recipientPublicKey can open. The blueprint key is derived
// from a fresh KEM shared secret with HKDF-SHA-512.
//
// Format: pq.{base64url(kemCiphertext)}.{blueprint}
func (p *Protector) SealBlueprint(plaintext, recipientPublicKey []byte) (sealed string, err error) {
	defer func(start time.Time) { p.done(opSealBlueprint, start, err) }(time.Now())

	kemCt, sharedSecret, err := p.suite.Encapsulate(recipientPublicKey)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(sharedSecret)

	key, err := crypto.ExpandKEMSecret(sharedSecret, kemCt, crypto.HKDFContextBlueprint)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(key)

	bp, err := p.blueprint.Create(plaintext, key)
	if err != nil {
		return "", err
	}
	return SealedPrefix + "." + codec.ToBase64URL(kemCt) + "." + bp, nil
}

// OpenSealedBlueprint opens a blueprint created by SealBlueprint.
func (p *Protector) OpenSealedBlueprint(sealed string, privateKey []byte) (plaintext []byte, err error) {
	defer func(start time.Time) { p.done(opOpenSealedBlueprint, start, err) }(time.Now())

	parts := strings.SplitN(sealed, ".", 3)
	if len(parts) != 3 || parts[0] != SealedPrefix {
		return nil, apierrors.Malformed(apierrors.ArtifactSealed, "expected pq.{kem}.{blueprint}", nil)
	}

	kemCt, err := codec.FromBase64URL(parts[1])
	if err != nil {
		return nil, apierrors.Malformed(apierrors.ArtifactSealed, "kem ciphertext", err)
	}

	sharedSecret, err := p.suite.Decapsulate(kemCt, privateKey)
	if err != nil {
		if errors.Is(err, pqc.ErrInvalidCiphertextSize) {
			return nil, apierrors.Malformed(apierrors.ArtifactSealed, "kem ciphertext", err)
		}
		return nil, err
	}
	defer crypto.Wipe(sharedSecret)

	key, err := crypto.ExpandKEMSecret(sharedSecret, kemCt, crypto.HKDFContextBlueprint)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)

	return p.blueprint.Reconstruct(parts[2], key)
}

// SignVoucher signs v with the suite's signature scheme. The signature
// covers the suite name, so it only verifies under the same suite.
func (p *Protector) SignVoucher(v string, privateKey []byte) (sig []byte, err error) {
	defer func(start time.Time) { p.done(opSignVoucher, start, err) }(time.Now())
	return p.suite.Sign(p.voucherTranscript(v), privateKey)
}

// VerifyVoucher checks a signature made by SignVoucher. A signature that
// does not verify is reported as *SignatureVerificationError.
func (p *Protector) VerifyVoucher(v string, sig, publicKey []byte) (err error) {
	defer func(start time.Time) { p.done(opVerifyVoucher, start, err) }(time.Now())

	err = p.suite.Verify(sig, p.voucherTranscript(v), publicKey)
	if errors.Is(err, pqc.ErrSignatureVerificationFailed) {
		return &SignatureVerificationError{Suite: p.suite.Name(), Err: err}
	}
	return err
}

func (p *Protector) voucherTranscript(v string) []byte {
	return pqc.Transcript(voucherSignatureVersion, p.suite.Name(), crypto.SignatureContextVoucher, []byte(v))
}
