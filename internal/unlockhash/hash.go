package unlockhash

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/codec"
)

// DualPrefix is the leading field of a dual-mode hash.
const DualPrefix = "dual"

// Mode selects how many passphrases an unlock hash accepts.
type Mode int

const (
	// ModeSingle binds exactly one passphrase.
	ModeSingle Mode = iota
	// ModeDual binds two passphrases, either of which verifies.
	ModeDual
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeDual:
		return "dual"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "single" or "dual".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return ModeSingle, nil
	case "dual":
		return ModeDual, nil
	}
	return 0, apierrors.InvalidArgument("unlockhash.ParseMode", "unknown mode %q", s)
}

// Hash is the parsed form of an unlock hash.
type Hash struct {
	Mode Mode
	Salt []byte

	// MAC is the truncated base62 MAC of a single-mode hash.
	MAC string
	// Legacy is the ignored leading field of the three-field single format.
	Legacy string

	// XORMAC is the truncated base62 XOR of both MACs of a dual-mode hash.
	XORMAC string
	// ChecksumA and ChecksumB are base62 renderings of each MAC's first bytes.
	ChecksumA string
	ChecksumB string
}

// String renders the hash in its wire format.
func (h Hash) String() string {
	salt := hex.EncodeToString(h.Salt)
	if h.Mode == ModeDual {
		return strings.Join([]string{DualPrefix, salt, h.XORMAC, h.ChecksumA, h.ChecksumB}, ".")
	}
	if h.Legacy != "" {
		return strings.Join([]string{h.Legacy, salt, h.MAC}, ".")
	}
	return salt + "." + h.MAC
}

// Parse decodes an unlock hash. A "dual." prefix selects dual mode; any
// other string must have two fields, or three for the legacy single format.
func Parse(s string) (Hash, error) {
	if strings.HasPrefix(s, DualPrefix+".") {
		return parseDual(s)
	}

	parts := strings.Split(s, ".")
	var h Hash
	switch len(parts) {
	case 2:
		h = Hash{Mode: ModeSingle, MAC: parts[1]}
	case 3:
		h = Hash{Mode: ModeSingle, Legacy: parts[0], MAC: parts[2]}
	default:
		return Hash{}, apierrors.Malformed(apierrors.ArtifactUnlockHash,
			fmt.Sprintf("expected 2 or 3 fields, got %d", len(parts)), nil)
	}

	salt, err := decodeSalt(parts[len(parts)-2])
	if err != nil {
		return Hash{}, err
	}
	h.Salt = salt

	if err := checkBase62("mac", h.MAC); err != nil {
		return Hash{}, err
	}
	return h, nil
}

func parseDual(s string) (Hash, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 5 {
		return Hash{}, apierrors.Malformed(apierrors.ArtifactUnlockHash,
			fmt.Sprintf("expected 5 fields in dual hash, got %d", len(parts)), nil)
	}

	salt, err := decodeSalt(parts[1])
	if err != nil {
		return Hash{}, err
	}

	h := Hash{
		Mode:      ModeDual,
		Salt:      salt,
		XORMAC:    parts[2],
		ChecksumA: parts[3],
		ChecksumB: parts[4],
	}
	fields := []struct{ name, value string }{
		{"xor mac", h.XORMAC},
		{"checksum a", h.ChecksumA},
		{"checksum b", h.ChecksumB},
	}
	for _, f := range fields {
		if err := checkBase62(f.name, f.value); err != nil {
			return Hash{}, err
		}
	}
	return h, nil
}

func decodeSalt(field string) ([]byte, error) {
	if field == "" {
		return nil, apierrors.Malformed(apierrors.ArtifactUnlockHash, "empty salt", nil)
	}
	salt, err := hex.DecodeString(field)
	if err != nil {
		return nil, apierrors.Malformed(apierrors.ArtifactUnlockHash, "salt", err)
	}
	return salt, nil
}

func checkBase62(name, field string) error {
	if _, err := codec.DecodeBase62(field); err != nil {
		return apierrors.Malformed(apierrors.ArtifactUnlockHash, name, err)
	}
	return nil
}
