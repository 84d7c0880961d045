// Command passvault creates and opens passvault artifacts from the shell.
//
// Usage:
//
//	passvault [-config file] [-env file] <command> [flags]
//
// Passphrases are read from the terminal, or from PASSVAULT_PASSPHRASE
// (and PASSVAULT_PASSPHRASE_B for the second dual-mode passphrase).
// Payloads and plaintexts are read from stdin.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	passvault "github.com/vaultsandbox/passvault-go"
	"github.com/vaultsandbox/passvault-go/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errMismatch reports a passphrase that does not verify.
var errMismatch = errors.New("passphrase does not match")

// Config holds the process resources run uses.
type Config struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	LookupEnv func(string) (string, bool)
	// ReadPassword prompts for a passphrase on the terminal.
	ReadPassword func(prompt string) ([]byte, error)
}

// DefaultConfig returns a Config bound to the process.
func DefaultConfig() Config {
	return Config{
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		LookupEnv:    os.LookupEnv,
		ReadPassword: readTerminalPassword,
	}
}

type command struct {
	usage string
	run   func(a *app, args []string) error
}

var commands = map[string]command{
	"hash":             {"hash", cmdHash},
	"hash-dual":        {"hash-dual", cmdHashDual},
	"verify":           {"verify -hash H [-mode single|dual]", cmdVerify},
	"voucher-create":   {"voucher-create -hash H < payload", cmdVoucherCreate},
	"voucher-open":     {"voucher-open -hash H < voucher", cmdVoucherOpen},
	"blueprint-create": {"blueprint-create -key K < plaintext", cmdBlueprintCreate},
	"blueprint-open":   {"blueprint-open -key K < blueprint", cmdBlueprintOpen},
	"seal":             {"seal -public-key K < plaintext", cmdSeal},
	"unseal":           {"unseal -private-key K < sealed", cmdUnseal},
	"matrix-key":       {"matrix-key -file F (-n N | -indices 1,2,3) [-id ID]", cmdMatrixKey},
	"id":               {"id [-length N]", cmdID},
	"keygen":           {"keygen [-type kem|sign]", cmdKeygen},
	"version":          {"version", cmdVersion},
}

// app carries what every command needs.
type app struct {
	cfg       Config
	settings  config.Config
	protector *passvault.Protector
	logger    zerolog.Logger
}

func run(args []string, cfg Config) error {
	global := flag.NewFlagSet("passvault", flag.ContinueOnError)
	global.SetOutput(cfg.Stderr)
	configFile := global.String("config", "", "YAML configuration file")
	envFile := global.String("env", ".env", "dotenv file with PASSVAULT_* settings")
	global.Usage = func() { usage(cfg.Stderr) }

	if len(args) == 0 {
		args = []string{"passvault"}
	}
	if err := global.Parse(args[1:]); err != nil {
		return err
	}
	if global.NArg() == 0 {
		usage(cfg.Stderr)
		return errors.New("no command given")
	}

	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(cfg.Stderr)
		return fmt.Errorf("unknown command: %s", name)
	}

	settings, err := config.Load(config.Options{
		File:      *configFile,
		EnvFile:   *envFile,
		LookupEnv: cfg.LookupEnv,
	})
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Stderr, settings.LogLevel)
	protector, err := passvault.New(
		passvault.WithKDFParams(settings.KDFParams()),
		passvault.WithMACLength(settings.MACChars, passvault.DefaultDualMACChars),
		passvault.WithSuite(settings.Suite),
		passvault.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, settings: settings, protector: protector, logger: logger}
	logger.Debug().Str("command", name).Str("suite", settings.Suite).Msg("running")
	return cmd.run(a, global.Args()[1:])
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(lvl).
		With().Timestamp().Logger()
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: passvault [-config file] [-env file] <command> [flags]")
	fmt.Fprintln(w, "commands:")
	for _, name := range sortedCommands() {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func sortedCommands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.cfg.Stderr)
	return fs
}

func (a *app) systemSecret() ([]byte, error) {
	if a.settings.SystemSecret == "" {
		return nil, fmt.Errorf("system secret is not configured (set %sSYSTEM_SECRET)", config.EnvPrefix)
	}
	return []byte(a.settings.SystemSecret), nil
}

func (a *app) readInput() ([]byte, error) {
	data, err := io.ReadAll(a.cfg.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

// readArtifact reads a single-line artifact from stdin.
func (a *app) readArtifact() (string, error) {
	data, err := a.readInput()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *app) println(s string) error {
	_, err := fmt.Fprintln(a.cfg.Stdout, s)
	return err
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.cfg.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func cmdHash(a *app, args []string) error {
	if err := a.flags("hash").Parse(args); err != nil {
		return err
	}
	pass, err := a.passphrase(envPassphrase, "Passphrase: ")
	if err != nil {
		return err
	}
	hash, err := a.protector.GenerateUnlockHash(pass)
	if err != nil {
		return err
	}
	return a.println(hash)
}

func cmdHashDual(a *app, args []string) error {
	if err := a.flags("hash-dual").Parse(args); err != nil {
		return err
	}
	passA, err := a.passphrase(envPassphrase, "First passphrase: ")
	if err != nil {
		return err
	}
	passB, err := a.passphrase(envPassphraseB, "Second passphrase: ")
	if err != nil {
		return err
	}
	hash, err := a.protector.GenerateDualUnlockHash(passA, passB)
	if err != nil {
		return err
	}
	return a.println(hash)
}

func cmdVerify(a *app, args []string) error {
	fs := a.flags("verify")
	hash := fs.String("hash", "", "stored unlock hash")
	modeName := fs.String("mode", "single", "single or dual")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("hash", *hash); err != nil {
		return err
	}
	mode, err := passvault.ParseMode(*modeName)
	if err != nil {
		return err
	}

	pass, err := a.passphrase(envPassphrase, "Passphrase: ")
	if err != nil {
		return err
	}
	ok, err := a.protector.VerifyUnlockHash(*hash, pass, mode)
	if err != nil {
		return err
	}
	if !ok {
		return errMismatch
	}
	return a.println("ok")
}

func cmdVoucherCreate(a *app, args []string) error {
	fs := a.flags("voucher-create")
	hash := fs.String("hash", "", "unlock hash the voucher is bound to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("hash", *hash); err != nil {
		return err
	}
	secret, err := a.systemSecret()
	if err != nil {
		return err
	}
	payload, err := a.readInput()
	if err != nil {
		return err
	}

	v, err := a.protector.CreateVoucher(string(payload), *hash, secret)
	if err != nil {
		return err
	}
	return a.println(v)
}

func cmdVoucherOpen(a *app, args []string) error {
	fs := a.flags("voucher-open")
	hash := fs.String("hash", "", "unlock hash the voucher is bound to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("hash", *hash); err != nil {
		return err
	}
	secret, err := a.systemSecret()
	if err != nil {
		return err
	}
	v, err := a.readArtifact()
	if err != nil {
		return err
	}
	pass, err := a.passphrase(envPassphrase, "Passphrase: ")
	if err != nil {
		return err
	}

	payload, err := a.protector.DecryptVoucher(v, pass, *hash, secret)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.cfg.Stdout, payload)
	return err
}

func cmdBlueprintCreate(a *app, args []string) error {
	fs := a.flags("blueprint-create")
	keyText := fs.String("key", "", "32-byte key, base64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := decodeKeyFlag("key", *keyText)
	if err != nil {
		return err
	}
	plaintext, err := a.readInput()
	if err != nil {
		return err
	}

	bp, err := a.protector.CreateBlueprint(plaintext, key)
	if err != nil {
		return err
	}
	return a.println(bp)
}

func cmdBlueprintOpen(a *app, args []string) error {
	fs := a.flags("blueprint-open")
	keyText := fs.String("key", "", "32-byte key, base64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := decodeKeyFlag("key", *keyText)
	if err != nil {
		return err
	}
	bp, err := a.readArtifact()
	if err != nil {
		return err
	}

	plaintext, err := a.protector.ReconstructBlueprint(bp, key)
	if err != nil {
		return err
	}
	_, err = a.cfg.Stdout.Write(plaintext)
	return err
}

func cmdSeal(a *app, args []string) error {
	fs := a.flags("seal")
	keyText := fs.String("public-key", "", "recipient KEM public key, base64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pub, err := decodeKeyFlag("public-key", *keyText)
	if err != nil {
		return err
	}
	plaintext, err := a.readInput()
	if err != nil {
		return err
	}

	sealed, err := a.protector.SealBlueprint(plaintext, pub)
	if err != nil {
		return err
	}
	return a.println(sealed)
}

func cmdUnseal(a *app, args []string) error {
	fs := a.flags("unseal")
	keyText := fs.String("private-key", "", "KEM private key, base64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	priv, err := decodeKeyFlag("private-key", *keyText)
	if err != nil {
		return err
	}
	sealed, err := a.readArtifact()
	if err != nil {
		return err
	}

	plaintext, err := a.protector.OpenSealedBlueprint(sealed, priv)
	if err != nil {
		return err
	}
	_, err = a.cfg.Stdout.Write(plaintext)
	return err
}

type matrixKeyOutput struct {
	Key     string `json:"key"`
	Indices []int  `json:"indices"`
	KeyID   string `json:"keyId"`
}

func cmdMatrixKey(a *app, args []string) error {
	fs := a.flags("matrix-key")
	file := fs.String("file", "", "text file, one entry per non-empty line")
	n := fs.Int("n", 0, "number of entries to pick")
	indexList := fs.String("indices", "", "comma-separated entry indices to re-derive")
	keyID := fs.String("id", "", "key identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("file", *file); err != nil {
		return err
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read matrix: %w", err)
	}
	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}

	var key []byte
	var indices []int
	switch {
	case *indexList != "":
		indices, err = parseIndices(*indexList)
		if err != nil {
			return err
		}
		key, err = a.protector.MatrixKey(entries, indices, *keyID)
	case *n > 0:
		key, indices, err = a.protector.DeriveMatrixKey(entries, *n, *keyID)
	default:
		return errors.New("one of -n or -indices is required")
	}
	if err != nil {
		return err
	}

	return a.writeJSON(matrixKeyOutput{
		Key:     passvault.EncodeKey(key),
		Indices: indices,
		KeyID:   *keyID,
	})
}

func parseIndices(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", field, err)
		}
		out = append(out, i)
	}
	return out, nil
}

func cmdID(a *app, args []string) error {
	fs := a.flags("id")
	length := fs.Int("length", a.settings.IDLength, "identifier length")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.protector.GenerateID(*length)
	if err != nil {
		return err
	}
	return a.println(id)
}

type keygenOutput struct {
	Suite      string `json:"suite"`
	Type       string `json:"type"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

func cmdKeygen(a *app, args []string) error {
	fs := a.flags("keygen")
	kind := fs.String("type", "kem", "kem or sign")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var kp *passvault.KeyPair
	var err error
	switch *kind {
	case "kem":
		kp, err = a.protector.GenerateKEMKeyPair()
	case "sign":
		kp, err = a.protector.GenerateSigningKeyPair()
	default:
		return fmt.Errorf("unknown key type %q", *kind)
	}
	if err != nil {
		return err
	}

	return a.writeJSON(keygenOutput{
		Suite:      a.protector.Suite(),
		Type:       *kind,
		PublicKey:  kp.PublicKeyB64,
		PrivateKey: passvault.EncodeKey(kp.PrivateKey),
	})
}

func cmdVersion(a *app, _ []string) error {
	return a.println("passvault " + version)
}

func decodeKeyFlag(name, value string) ([]byte, error) {
	if err := requireFlag(name, value); err != nil {
		return nil, err
	}
	return passvault.DecodeKey(value)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
