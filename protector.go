package passvault

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/blueprint"
	"github.com/vaultsandbox/passvault-go/internal/codec"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
	"github.com/vaultsandbox/passvault-go/internal/matrix"
	"github.com/vaultsandbox/passvault-go/internal/pqc"
	"github.com/vaultsandbox/passvault-go/internal/uniqueid"
	"github.com/vaultsandbox/passvault-go/internal/unlockhash"
	"github.com/vaultsandbox/passvault-go/internal/voucher"
)

// Mode selects how many passphrases an unlock hash accepts.
type Mode = unlockhash.Mode

const (
	// ModeSingle binds one passphrase.
	ModeSingle = unlockhash.ModeSingle
	// ModeDual binds two passphrases, either of which verifies.
	ModeDual = unlockhash.ModeDual
)

// ParseMode parses "single" or "dual".
func ParseMode(s string) (Mode, error) {
	return unlockhash.ParseMode(s)
}

// KeySize is the size of a blueprint key.
const KeySize = crypto.KeySize

// maxMACChars is the length of a 32-byte MAC in base62.
const maxMACChars = 43

// Operation names used in logs and metrics.
const (
	opGenerateUnlockHash   = "generate_unlock_hash"
	opVerifyUnlockHash     = "verify_unlock_hash"
	opCreateBlueprint      = "create_blueprint"
	opReconstructBlueprint = "reconstruct_blueprint"
	opCreateVoucher        = "create_voucher"
	opDecryptVoucher       = "decrypt_voucher"
	opSealBlueprint        = "seal_blueprint"
	opOpenSealedBlueprint  = "open_sealed_blueprint"
	opSignVoucher          = "sign_voucher"
	opVerifyVoucher        = "verify_voucher"
	opDeriveMatrixKey      = "derive_matrix_key"
)

// Protector holds the configured capabilities: KDF cost, unlock-hash
// truncation, the post-quantum suite, logging and metrics. It is immutable
// after New and safe for concurrent use.
type Protector struct {
	unlock    *unlockhash.Generator
	blueprint *blueprint.Engine
	voucher   *voucher.Envelope
	suite     pqc.Suite

	logger  zerolog.Logger
	metrics *metrics
}

// New creates a Protector.
func New(opts ...Option) (*Protector, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	suite, err := pqc.Init(cfg.suite)
	if err != nil {
		return nil, err
	}

	m, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, err
	}

	gen := unlockhash.New(cfg.unlock)
	return &Protector{
		unlock:    gen,
		blueprint: blueprint.New(cfg.unlock.KDF),
		voucher:   voucher.New(gen),
		suite:     suite,
		logger:    cfg.logger,
		metrics:   m,
	}, nil
}

func validateConfig(cfg *protectorConfig) error {
	if err := cfg.unlock.KDF.Validate(); err != nil {
		return apierrors.InvalidArgument("passvault.New", "%v", err)
	}
	if cfg.unlock.KDF.KeyLen != crypto.KeySize {
		return apierrors.InvalidArgument("passvault.New", "kdf key length must be %d, got %d", crypto.KeySize, cfg.unlock.KDF.KeyLen)
	}
	if cfg.unlock.MACChars < 1 || cfg.unlock.MACChars > maxMACChars {
		return apierrors.InvalidArgument("passvault.New", "mac length must be in [1, %d], got %d", maxMACChars, cfg.unlock.MACChars)
	}
	if cfg.unlock.DualMACChars < 1 || cfg.unlock.DualMACChars > maxMACChars {
		return apierrors.InvalidArgument("passvault.New", "dual mac length must be in [1, %d], got %d", maxMACChars, cfg.unlock.DualMACChars)
	}
	if cfg.unlock.ChecksumBytes < 1 || cfg.unlock.ChecksumBytes > crypto.KeySize {
		return apierrors.InvalidArgument("passvault.New", "checksum bytes must be in [1, %d], got %d", crypto.KeySize, cfg.unlock.ChecksumBytes)
	}
	return nil
}

// Suite returns the name of the post-quantum suite in use.
func (p *Protector) Suite() string {
	return p.suite.Name()
}

// done records the outcome of op.
func (p *Protector) done(op string, start time.Time, err error) {
	p.metrics.observe(op, start, err)
	if err != nil {
		p.logger.Debug().
			Str("operation", op).
			Str("result", resultOf(err)).
			Dur("elapsed", time.Since(start)).
			Msg("operation failed")
		return
	}
	p.logger.Trace().
		Str("operation", op).
		Dur("elapsed", time.Since(start)).
		Msg("operation succeeded")
}

// GenerateUnlockHash creates a single-mode unlock hash for passphrase.
// Each call draws a fresh salt, so repeated calls give different hashes.
func (p *Protector) GenerateUnlockHash(passphrase string) (hash string, err error) {
	defer func(start time.Time) { p.done(opGenerateUnlockHash, start, err) }(time.Now())
	return p.unlock.GenerateSingle(passphrase)
}

// GenerateDualUnlockHash creates a dual-mode unlock hash that either
// passphrase verifies against. Both must be non-empty.
func (p *Protector) GenerateDualUnlockHash(passphraseA, passphraseB string) (hash string, err error) {
	defer func(start time.Time) { p.done(opGenerateUnlockHash, start, err) }(time.Now())
	return p.unlock.GenerateDual(passphraseA, passphraseB)
}

// GenerateUnlockHashMode dispatches on mode. passphraseB is ignored in
// single mode.
func (p *Protector) GenerateUnlockHashMode(mode Mode, passphraseA, passphraseB string) (hash string, err error) {
	defer func(start time.Time) { p.done(opGenerateUnlockHash, start, err) }(time.Now())
	return p.unlock.Generate(mode, passphraseA, passphraseB)
}

// VerifyUnlockHash reports whether candidate matches stored. A stored hash
// with the "dual." prefix is verified in dual mode regardless of mode.
// Asking for ModeDual on a single-mode hash is ErrMalformedInput.
func (p *Protector) VerifyUnlockHash(stored, candidate string, mode Mode) (ok bool, err error) {
	defer func(start time.Time) { p.done(opVerifyUnlockHash, start, err) }(time.Now())
	return p.unlock.Verify(stored, candidate, mode)
}

// CreateBlueprint seals plaintext under a 32-byte key.
func (p *Protector) CreateBlueprint(plaintext, key []byte) (bp string, err error) {
	defer func(start time.Time) { p.done(opCreateBlueprint, start, err) }(time.Now())
	return p.blueprint.Create(plaintext, key)
}

// ReconstructBlueprint opens bp with key. A wrong key or tampered blueprint
// fails with ErrAuthentication; an undecodable one with ErrMalformedInput.
func (p *Protector) ReconstructBlueprint(bp string, key []byte) (plaintext []byte, err error) {
	defer func(start time.Time) { p.done(opReconstructBlueprint, start, err) }(time.Now())
	return p.blueprint.Reconstruct(bp, key)
}

// ReconstructBlueprintOrNil is ReconstructBlueprint with every failure
// reported as nil.
func (p *Protector) ReconstructBlueprintOrNil(bp string, key []byte) []byte {
	plaintext, _ := p.ReconstructBlueprint(bp, key)
	return plaintext
}

// CreateVoucher wraps payload for the holder of the passphrase behind
// unlockHash, keyed additionally by systemSecret.
func (p *Protector) CreateVoucher(payload, unlockHash string, systemSecret []byte) (v string, err error) {
	defer func(start time.Time) { p.done(opCreateVoucher, start, err) }(time.Now())
	return p.voucher.Create(payload, unlockHash, systemSecret)
}

// DecryptVoucher opens v. The passphrase is verified against unlockHash
// first; a mismatch is ErrInvalidPassphrase and nothing is decrypted.
func (p *Protector) DecryptVoucher(v, passphrase, unlockHash string, systemSecret []byte) (payload string, err error) {
	defer func(start time.Time) { p.done(opDecryptVoucher, start, err) }(time.Now())
	return p.voucher.Decrypt(v, passphrase, unlockHash, systemSecret)
}

// DeriveMatrixKey picks n distinct entries at random and derives a
// blueprint key from them and keyID. The returned indices re-derive the
// same key with MatrixKey.
//
// The derivation is a single SHA-256; it is only as strong as the
// entries and their selection.
func (p *Protector) DeriveMatrixKey(entries []string, n int, keyID string) (key []byte, indices []int, err error) {
	defer func(start time.Time) { p.done(opDeriveMatrixKey, start, err) }(time.Now())

	m, err := matrix.New(entries)
	if err != nil {
		return nil, nil, err
	}
	indices, err = m.Pick(n)
	if err != nil {
		return nil, nil, err
	}
	key, err = m.Key(indices, keyID)
	if err != nil {
		return nil, nil, err
	}
	return key, indices, nil
}

// MatrixKey re-derives the key for indices and keyID.
func (p *Protector) MatrixKey(entries []string, indices []int, keyID string) (key []byte, err error) {
	defer func(start time.Time) { p.done(opDeriveMatrixKey, start, err) }(time.Now())

	m, err := matrix.New(entries)
	if err != nil {
		return nil, err
	}
	return m.Key(indices, keyID)
}

// GenerateID returns a random identifier of length characters over
// 0-9A-Za-z-_.
func (p *Protector) GenerateID(length int) (string, error) {
	return uniqueid.Generate(length)
}

// EncodeKey renders a blueprint key as URL-safe base64.
func EncodeKey(key []byte) string {
	return codec.ToBase64URL(key)
}

// DecodeKey parses key material in any base64 variant.
func DecodeKey(s string) ([]byte, error) {
	key, err := codec.DecodeBase64(s)
	if err != nil {
		return nil, apierrors.InvalidArgument("passvault.DecodeKey", "key is not base64: %v", err)
	}
	return key, nil
}
