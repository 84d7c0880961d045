// Package config loads CLI settings from a YAML file, a .env file and
// PASSVAULT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vaultsandbox/passvault-go/internal/crypto"
	"github.com/vaultsandbox/passvault-go/internal/pqc"
	"github.com/vaultsandbox/passvault-go/internal/unlockhash"
	"github.com/vaultsandbox/passvault-go/internal/uniqueid"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PASSVAULT_"

// ErrInvalidConfig is returned when the merged configuration fails
// validation.
var ErrInvalidConfig = errors.New("invalid config")

// KDF holds the Argon2id cost settings.
type KDF struct {
	Time      uint32 `yaml:"time" validate:"min=1"`
	MemoryKiB uint32 `yaml:"memory_kib" validate:"min=8"`
	Threads   uint8  `yaml:"threads" validate:"min=1"`
}

// Config is the merged CLI configuration.
type Config struct {
	Suite        string `yaml:"suite" validate:"pqcsuite"`
	LogLevel     string `yaml:"log_level" validate:"oneof=trace debug info warn error disabled"`
	SystemSecret string `yaml:"system_secret"`
	MACChars     int    `yaml:"mac_chars" validate:"min=8,max=43"`
	IDLength     int    `yaml:"id_length" validate:"min=1,max=256"`
	KDF          KDF    `yaml:"kdf"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	kdf := crypto.DefaultKDFParams()
	return Config{
		Suite:    pqc.DefaultSuite,
		LogLevel: "warn",
		MACChars: unlockhash.DefaultParams().MACChars,
		IDLength: uniqueid.DefaultLength,
		KDF: KDF{
			Time:      kdf.Time,
			MemoryKiB: kdf.MemoryKiB,
			Threads:   kdf.Threads,
		},
	}
}

// KDFParams converts the KDF section for the crypto layer.
func (c Config) KDFParams() crypto.KDFParams {
	return crypto.KDFParams{
		Time:      c.KDF.Time,
		MemoryKiB: c.KDF.MemoryKiB,
		Threads:   c.KDF.Threads,
		KeyLen:    crypto.KeySize,
	}
}

// Options controls where Load reads from.
type Options struct {
	// File is a YAML config file. A missing file is an error.
	File string
	// EnvFile is a .env file. A missing file is ignored.
	EnvFile string
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load merges defaults, File, EnvFile and the environment, then validates
// the result.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", opts.File, err)
		}
	}

	dotenv := map[string]string{}
	if opts.EnvFile != "" {
		values, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, os.ErrNotExist):
			// optional
		default:
			return Config{}, fmt.Errorf("read env file: %w", err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) (string, bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+name]
		return v, ok
	}

	if err := applyEnv(&cfg, get); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, get func(string) (string, bool)) error {
	if v, ok := get("SUITE"); ok {
		cfg.Suite = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get("SYSTEM_SECRET"); ok {
		cfg.SystemSecret = v
	}

	ints := []struct {
		name string
		set  func(uint64)
		bits int
	}{
		{"MAC_CHARS", func(n uint64) { cfg.MACChars = int(n) }, 16},
		{"ID_LENGTH", func(n uint64) { cfg.IDLength = int(n) }, 16},
		{"KDF_TIME", func(n uint64) { cfg.KDF.Time = uint32(n) }, 32},
		{"KDF_MEMORY_KIB", func(n uint64) { cfg.KDF.MemoryKiB = uint32(n) }, 32},
		{"KDF_THREADS", func(n uint64) { cfg.KDF.Threads = uint8(n) }, 8},
	}
	for _, i := range ints {
		v, ok := get(i.name)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, i.bits)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, i.name, err)
		}
		i.set(n)
	}
	return nil
}
