package unlockhash

import (
	"crypto/subtle"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/codec"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
)

// Params are the tunable truncation lengths and the KDF cost.
type Params struct {
	// MACChars is the number of base62 MAC characters kept in single mode.
	MACChars int
	// DualMACChars is the number of base62 XOR-MAC characters kept in dual mode.
	DualMACChars int
	// ChecksumBytes is the number of MAC bytes behind each dual checksum.
	ChecksumBytes int
	// KDF is the Argon2id cost.
	KDF crypto.KDFParams
}

// DefaultParams returns the wire-compatible parameters.
func DefaultParams() Params {
	return Params{
		MACChars:      15,
		DualMACChars:  30,
		ChecksumBytes: 3,
		KDF:           crypto.DefaultKDFParams(),
	}
}

// Generator creates and verifies unlock hashes. It holds no mutable state
// and is safe for concurrent use.
type Generator struct {
	params Params
}

// New returns a Generator using p.
func New(p Params) *Generator {
	return &Generator{params: p}
}

// Params returns the generator's parameters.
func (g *Generator) Params() Params {
	return g.params
}

// Generate dispatches on mode. passphraseB is ignored in single mode.
func (g *Generator) Generate(mode Mode, passphraseA, passphraseB string) (string, error) {
	switch mode {
	case ModeSingle:
		return g.GenerateSingle(passphraseA)
	case ModeDual:
		return g.GenerateDual(passphraseA, passphraseB)
	}
	return "", apierrors.InvalidArgument("unlockhash.Generate", "unknown mode %v", mode)
}

// GenerateSingle creates a single-mode unlock hash.
func (g *Generator) GenerateSingle(passphrase string) (string, error) {
	if passphrase == "" {
		return "", apierrors.InvalidArgument("unlockhash.GenerateSingle", "passphrase is empty")
	}

	salt := crypto.RandomBytes(crypto.SaltSize)
	mac, err := g.singleMAC(passphrase, salt)
	if err != nil {
		return "", err
	}

	return Hash{Mode: ModeSingle, Salt: salt, MAC: mac}.String(), nil
}

// GenerateDual creates a hash that verifies for either passphrase.
func (g *Generator) GenerateDual(passphraseA, passphraseB string) (string, error) {
	if passphraseA == "" || passphraseB == "" {
		return "", apierrors.InvalidArgument("unlockhash.GenerateDual", "Dual mode requires two passphrases")
	}

	salt := crypto.RandomBytes(crypto.SaltSize)

	macA, err := g.saltMAC(passphraseA, salt)
	if err != nil {
		return "", err
	}
	macB, err := g.saltMAC(passphraseB, salt)
	if err != nil {
		return "", err
	}

	xorMAC, err := codec.XOREqual(macA, macB)
	if err != nil {
		return "", apierrors.InvalidArgument("unlockhash.GenerateDual", "%v", err)
	}

	h := Hash{
		Mode:      ModeDual,
		Salt:      salt,
		XORMAC:    truncate(codec.EncodeBase62(xorMAC), g.params.DualMACChars),
		ChecksumA: g.checksum(macA),
		ChecksumB: g.checksum(macB),
	}
	return h.String(), nil
}

// Verify reports whether candidate unlocks stored. A "dual." prefix on
// stored selects dual mode regardless of mode; requesting ModeDual for a
// hash without the prefix is a malformed-input error.
func (g *Generator) Verify(stored, candidate string, mode Mode) (bool, error) {
	h, err := Parse(stored)
	if err != nil {
		return false, err
	}

	if mode == ModeDual && h.Mode != ModeDual {
		return false, apierrors.Malformed(apierrors.ArtifactUnlockHash, "dual mode requested for a single-mode hash", nil)
	}

	if h.Mode == ModeDual {
		mac, err := g.saltMAC(candidate, h.Salt)
		if err != nil {
			return false, err
		}
		sum := []byte(g.checksum(mac))
		matchA := subtle.ConstantTimeCompare(sum, []byte(h.ChecksumA))
		matchB := subtle.ConstantTimeCompare(sum, []byte(h.ChecksumB))
		return matchA|matchB == 1, nil
	}

	mac, err := g.singleMAC(candidate, h.Salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(mac), []byte(h.MAC)) == 1, nil
}

// singleMAC returns base62(HMAC(KDF(p, salt), p)) truncated.
func (g *Generator) singleMAC(passphrase string, salt []byte) (string, error) {
	key, err := crypto.DeriveKey([]byte(passphrase), salt, g.params.KDF)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(key)

	mac := crypto.MAC(key, []byte(passphrase))
	return truncate(codec.EncodeBase62(mac), g.params.MACChars), nil
}

// saltMAC returns HMAC(KDF(p, salt), salt).
func (g *Generator) saltMAC(passphrase string, salt []byte) ([]byte, error) {
	key, err := crypto.DeriveKey([]byte(passphrase), salt, g.params.KDF)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)

	return crypto.MAC(key, salt), nil
}

func (g *Generator) checksum(mac []byte) string {
	n := g.params.ChecksumBytes
	if n > len(mac) {
		n = len(mac)
	}
	return codec.EncodeBase62(mac[:n])
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
