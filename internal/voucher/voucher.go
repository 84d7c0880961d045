// Package voucher implements the two-layer voucher envelope.
//
// The payload is sealed under a fresh 32-byte one-time key (EK). The EK,
// as base64 text, is sealed under HMAC-SHA-256(systemSecret, unlockHash).
// Both layers use AES-256-GCM with a fresh 12-byte nonce. The record is
// serialized as compact JSON with a fixed field order and wrapped in
// standard base64.
package voucher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/codec"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
	"github.com/vaultsandbox/passvault-go/internal/unlockhash"
)

// Version is the record version written by Create.
const Version = 1

// Record is the decoded voucher body. All byte fields are carried as
// standard base64 on the wire.
type Record struct {
	Version       int    `json:"v"`
	EncryptedData string `json:"encryptedData"`
	IV            string `json:"iv"`
	AuthTag       string `json:"authTag"`
	EncryptedEK   string `json:"encryptedEK"`
	EKIV          string `json:"ekIv"`
	EKAuthTag     string `json:"ekAuthTag"`
	Salt          string `json:"salt"`
}

// recordFields lists the exact, case-sensitive key set of a Record.
var recordFields = []string{"v", "encryptedData", "iv", "authTag", "encryptedEK", "ekIv", "ekAuthTag", "salt"}

// Verifier checks a candidate passphrase against a stored unlock hash.
type Verifier interface {
	Verify(stored, candidate string, mode unlockhash.Mode) (bool, error)
}

// Envelope creates and opens vouchers. It is safe for concurrent use.
type Envelope struct {
	verifier Verifier
}

// New returns an Envelope that checks passphrases with v.
func New(v Verifier) *Envelope {
	return &Envelope{verifier: v}
}

// Create wraps payload for the holder of the passphrase behind unlockHash.
func (e *Envelope) Create(payload, unlockHash string, systemSecret []byte) (string, error) {
	if len(systemSecret) == 0 {
		return "", apierrors.InvalidArgument("voucher.Create", "system secret is empty")
	}

	hash, err := unlockhash.Parse(unlockHash)
	if err != nil {
		return "", err
	}

	ek := crypto.RandomBytes(crypto.OneTimeKeySize)
	defer crypto.Wipe(ek)

	iv := crypto.RandomBytes(crypto.AESNonceSize)
	ct, tag, err := crypto.Seal(ek, iv, []byte(payload))
	if err != nil {
		return "", fmt.Errorf("seal payload: %w", err)
	}

	wrapKey := crypto.MAC(systemSecret, []byte(unlockHash))
	defer crypto.Wipe(wrapKey)

	ekText := []byte(codec.ToBase64(ek))
	defer crypto.Wipe(ekText)

	ekIV := crypto.RandomBytes(crypto.AESNonceSize)
	ekCt, ekTag, err := crypto.Seal(wrapKey, ekIV, ekText)
	if err != nil {
		return "", fmt.Errorf("seal one-time key: %w", err)
	}

	body, err := json.Marshal(Record{
		Version:       Version,
		EncryptedData: codec.ToBase64(ct),
		IV:            codec.ToBase64(iv),
		AuthTag:       codec.ToBase64(tag),
		EncryptedEK:   codec.ToBase64(ekCt),
		EKIV:          codec.ToBase64(ekIV),
		EKAuthTag:     codec.ToBase64(ekTag),
		Salt:          codec.ToBase64(hash.Salt),
	})
	if err != nil {
		return "", fmt.Errorf("encode voucher: %w", err)
	}

	return codec.ToBase64(body), nil
}

// Decrypt opens voucher with passphrase.
//
// Failures are ordered: apierrors.ErrInvalidPassphrase when the passphrase
// does not verify against unlockHash, apierrors.ErrMalformedVoucher when
// the body does not decode, and *apierrors.AuthenticationError when either
// AEAD layer rejects its tag.
func (e *Envelope) Decrypt(voucher, passphrase, unlockHash string, systemSecret []byte) (string, error) {
	if len(systemSecret) == 0 {
		return "", apierrors.InvalidArgument("voucher.Decrypt", "system secret is empty")
	}

	ok, err := e.verifier.Verify(unlockHash, passphrase, unlockhash.ModeSingle)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apierrors.ErrInvalidPassphrase
	}

	hash, err := unlockhash.Parse(unlockHash)
	if err != nil {
		return "", err
	}

	f, err := decode(voucher)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(f.salt, hash.Salt) {
		return "", apierrors.Malformed(apierrors.ArtifactVoucher, "salt does not match unlock hash", nil)
	}

	wrapKey := crypto.MAC(systemSecret, []byte(unlockHash))
	defer crypto.Wipe(wrapKey)

	ekText, err := crypto.Open(wrapKey, f.ekIV, f.encryptedEK, f.ekAuthTag)
	if err != nil {
		return "", authError("ek", err)
	}
	defer crypto.Wipe(ekText)

	ek, err := codec.FromBase64Strict(string(ekText))
	if err != nil || len(ek) != crypto.OneTimeKeySize {
		return "", apierrors.Malformed(apierrors.ArtifactVoucher, "one-time key", err)
	}
	defer crypto.Wipe(ek)

	payload, err := crypto.Open(ek, f.iv, f.encryptedData, f.authTag)
	if err != nil {
		return "", authError("payload", err)
	}
	return string(payload), nil
}

// Parse decodes voucher into its Record without decrypting it.
func Parse(voucher string) (Record, error) {
	f, err := decode(voucher)
	if err != nil {
		return Record{}, err
	}
	return f.record, nil
}

type fields struct {
	record        Record
	encryptedData []byte
	iv            []byte
	authTag       []byte
	encryptedEK   []byte
	ekIV          []byte
	ekAuthTag     []byte
	salt          []byte
}

func decode(voucher string) (*fields, error) {
	body, err := codec.FromBase64Strict(voucher)
	if err != nil {
		return nil, apierrors.Malformed(apierrors.ArtifactVoucher, "base64", err)
	}

	// encoding/json matches struct keys case-insensitively, so the key set
	// is checked on a raw map first.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apierrors.Malformed(apierrors.ArtifactVoucher, "json", err)
	}
	if len(raw) != len(recordFields) {
		return nil, apierrors.Malformed(apierrors.ArtifactVoucher,
			fmt.Sprintf("expected %d fields, got %d", len(recordFields), len(raw)), nil)
	}
	for _, name := range recordFields {
		if _, ok := raw[name]; !ok {
			return nil, apierrors.Malformed(apierrors.ArtifactVoucher, "missing field "+name, nil)
		}
	}

	f := &fields{}
	if err := json.Unmarshal(raw["v"], &f.record.Version); err != nil {
		return nil, apierrors.Malformed(apierrors.ArtifactVoucher, "v", err)
	}
	if f.record.Version != Version {
		return nil, apierrors.Malformed(apierrors.ArtifactVoucher,
			fmt.Sprintf("unsupported version %d", f.record.Version), nil)
	}

	targets := []struct {
		name string
		text *string
		data *[]byte
	}{
		{"encryptedData", &f.record.EncryptedData, &f.encryptedData},
		{"iv", &f.record.IV, &f.iv},
		{"authTag", &f.record.AuthTag, &f.authTag},
		{"encryptedEK", &f.record.EncryptedEK, &f.encryptedEK},
		{"ekIv", &f.record.EKIV, &f.ekIV},
		{"ekAuthTag", &f.record.EKAuthTag, &f.ekAuthTag},
		{"salt", &f.record.Salt, &f.salt},
	}
	for _, t := range targets {
		if err := json.Unmarshal(raw[t.name], t.text); err != nil {
			return nil, apierrors.Malformed(apierrors.ArtifactVoucher, t.name, err)
		}
		data, err := codec.FromBase64Strict(*t.text)
		if err != nil {
			return nil, apierrors.Malformed(apierrors.ArtifactVoucher, t.name, err)
		}
		*t.data = data
	}

	if len(f.iv) != crypto.AESNonceSize || len(f.ekIV) != crypto.AESNonceSize {
		return nil, apierrors.Malformed(apierrors.ArtifactVoucher, "nonce length", nil)
	}
	if len(f.authTag) != crypto.AESTagSize || len(f.ekAuthTag) != crypto.AESTagSize {
		return nil, apierrors.Malformed(apierrors.ArtifactVoucher, "tag length", nil)
	}

	return f, nil
}

func authError(stage string, err error) error {
	if errors.Is(err, crypto.ErrDecryptionFailed) {
		return &apierrors.AuthenticationError{Stage: stage, Err: err}
	}
	return err
}
