package passvault

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vaultsandbox/passvault-go/internal/crypto"
	"github.com/vaultsandbox/passvault-go/internal/pqc"
	"github.com/vaultsandbox/passvault-go/internal/unlockhash"
)

// KDFParams are the Argon2id cost parameters.
type KDFParams = crypto.KDFParams

// DefaultKDFParams returns the parameters every artifact is created with
// unless WithKDFParams overrides them.
func DefaultKDFParams() KDFParams {
	return crypto.DefaultKDFParams()
}

// Post-quantum suite names accepted by WithSuite.
const (
	SuiteKyber1024MLDSA87 = pqc.SuiteKyber1024MLDSA87
	SuiteMLKEM768MLDSA65  = pqc.SuiteMLKEM768MLDSA65
	DefaultSuite          = pqc.DefaultSuite
)

// Default unlock-hash truncation lengths.
const (
	DefaultMACChars     = 15
	DefaultDualMACChars = 30
)

// protectorConfig holds configuration for a Protector.
type protectorConfig struct {
	unlock     unlockhash.Params
	suite      string
	logger     zerolog.Logger
	registerer prometheus.Registerer
}

func defaultConfig() *protectorConfig {
	return &protectorConfig{
		unlock: unlockhash.DefaultParams(),
		suite:  pqc.DefaultSuite,
		logger: zerolog.Nop(),
	}
}

// Option configures a Protector.
type Option func(*protectorConfig)

// WithKDFParams sets the Argon2id cost. Artifacts only verify under the
// parameters they were created with.
func WithKDFParams(p KDFParams) Option {
	return func(c *protectorConfig) {
		c.unlock.KDF = p
	}
}

// WithMACLength sets how many base62 characters of the unlock-hash MAC are
// kept: single for single mode, dual for the XOR MAC of dual mode.
// Default: 15 and 30
func WithMACLength(single, dual int) Option {
	return func(c *protectorConfig) {
		c.unlock.MACChars = single
		c.unlock.DualMACChars = dual
	}
}

// WithChecksumBytes sets how many MAC bytes back each dual-mode checksum.
// Each checksum accepts a wrong passphrase with probability 2^-(8n).
// Default: 3
func WithChecksumBytes(n int) Option {
	return func(c *protectorConfig) {
		c.unlock.ChecksumBytes = n
	}
}

// WithSuite selects the post-quantum suite.
// Default: kyber1024-mldsa87
func WithSuite(name string) Option {
	return func(c *protectorConfig) {
		c.suite = name
	}
}

// WithLogger sets the logger. Failures are logged at debug level with the
// operation and error class only; secrets are never logged.
// Default: zerolog.Nop()
func WithLogger(l zerolog.Logger) Option {
	return func(c *protectorConfig) {
		c.logger = l
	}
}

// WithMetricsRegisterer registers operation metrics with r.
// No metrics are collected without it.
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(c *protectorConfig) {
		c.registerer = r
	}
}
