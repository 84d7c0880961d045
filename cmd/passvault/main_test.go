package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	passvault "github.com/vaultsandbox/passvault-go"
)

var fastEnv = map[string]string{
	"PASSVAULT_KDF_TIME":       "1",
	"PASSVAULT_KDF_MEMORY_KIB": "64",
	"PASSVAULT_KDF_THREADS":    "1",
	"PASSVAULT_SYSTEM_SECRET":  "cli system secret",
	"PASSVAULT_SUITE":          "mlkem768-mldsa65",
}

type harness struct {
	t       *testing.T
	env     map[string]string
	prompts []string
	envFile string
}

func newHarness(t *testing.T) *harness {
	env := make(map[string]string, len(fastEnv))
	for k, v := range fastEnv {
		env[k] = v
	}
	return &harness{t: t, env: env, envFile: filepath.Join(t.TempDir(), ".env")}
}

// run executes the CLI with stdin and returns stdout and stderr.
func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	cfg := Config{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
		LookupEnv: func(k string) (string, bool) {
			v, ok := h.env[k]
			return v, ok
		},
		ReadPassword: func(prompt string) ([]byte, error) {
			h.prompts = append(h.prompts, prompt)
			return nil, errors.New("no terminal in tests")
		},
	}
	err := run(append([]string{"passvault", "-env", h.envFile}, args...), cfg)
	return stdout.String(), stderr.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, stderr, err := h.run(stdin, args...)
	require.NoError(h.t, err, "stderr: %s", stderr)
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, os.Stdin, cfg.Stdin)
	assert.Equal(t, os.Stdout, cfg.Stdout)
	assert.Equal(t, os.Stderr, cfg.Stderr)
	assert.NotNil(t, cfg.LookupEnv)
	assert.NotNil(t, cfg.ReadPassword)
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run("")
	assert.EqualError(t, err, "no command given")
	assert.Contains(t, stderr, "usage: passvault")
	assert.Contains(t, stderr, "blueprint-create")

	_, _, err = h.run("", "frobnicate")
	assert.EqualError(t, err, "unknown command: frobnicate")
}

func TestRun_Version(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "passvault dev\n", h.mustRun("", "version"))
}

func TestRun_HashAndVerify(t *testing.T) {
	h := newHarness(t)
	h.env[envPassphrase] = "U&Z1I2$9"

	hash := strings.TrimSpace(h.mustRun("", "hash"))
	assert.Regexp(t, `^[0-9a-f]{32}\.[0-9A-Za-z]{1,15}$`, hash)

	assert.Equal(t, "ok\n", h.mustRun("", "verify", "-hash", hash))

	h.env[envPassphrase] = "wrong"
	_, _, err := h.run("", "verify", "-hash", hash)
	assert.ErrorIs(t, err, errMismatch)

	_, _, err = h.run("", "verify")
	assert.EqualError(t, err, "-hash is required")
}

func TestRun_HashDual(t *testing.T) {
	h := newHarness(t)
	h.env[envPassphrase] = "alice"
	h.env[envPassphraseB] = "bob"

	hash := strings.TrimSpace(h.mustRun("", "hash-dual"))
	assert.True(t, strings.HasPrefix(hash, "dual."))

	h.env[envPassphrase] = "bob"
	assert.Equal(t, "ok\n", h.mustRun("", "verify", "-hash", hash, "-mode", "dual"))
}

func TestRun_PromptsWithoutEnv(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("", "hash")
	assert.EqualError(t, err, "no terminal in tests")
	assert.Equal(t, []string{"Passphrase: "}, h.prompts)
}

func TestRun_Voucher(t *testing.T) {
	h := newHarness(t)
	h.env[envPassphrase] = "voucher pass"

	hash := strings.TrimSpace(h.mustRun("", "hash"))
	v := strings.TrimSpace(h.mustRun("the payload\nline two", "voucher-create", "-hash", hash))

	assert.Equal(t, "the payload\nline two", h.mustRun(v+"\n", "voucher-open", "-hash", hash))

	h.env[envPassphrase] = "wrong"
	_, _, err := h.run(v, "voucher-open", "-hash", hash)
	assert.ErrorIs(t, err, passvault.ErrInvalidPassphrase)

	delete(h.env, "PASSVAULT_SYSTEM_SECRET")
	_, _, err = h.run("x", "voucher-create", "-hash", hash)
	assert.ErrorContains(t, err, "system secret is not configured")
}

func TestRun_Blueprint(t *testing.T) {
	h := newHarness(t)
	key := passvault.EncodeKey(bytes.Repeat([]byte{0x5a}, passvault.KeySize))

	bp := strings.TrimSpace(h.mustRun("blueprint body", "blueprint-create", "-key", key))
	assert.Len(t, strings.Split(bp, "."), 5)

	assert.Equal(t, "blueprint body", h.mustRun(bp, "blueprint-open", "-key", key))

	other := passvault.EncodeKey(bytes.Repeat([]byte{0x5b}, passvault.KeySize))
	_, _, err := h.run(bp, "blueprint-open", "-key", other)
	assert.ErrorIs(t, err, passvault.ErrAuthentication)

	_, _, err = h.run("x", "blueprint-create", "-key", "c2hvcnQ")
	assert.ErrorIs(t, err, passvault.ErrInvalidArgument)

	_, _, err = h.run("x", "blueprint-create")
	assert.EqualError(t, err, "-key is required")
}

func TestRun_KeygenSealUnseal(t *testing.T) {
	h := newHarness(t)

	var keys keygenOutput
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "keygen")), &keys))
	assert.Equal(t, passvault.SuiteMLKEM768MLDSA65, keys.Suite)
	assert.Equal(t, "kem", keys.Type)

	sealed := strings.TrimSpace(h.mustRun("sealed body", "seal", "-public-key", keys.PublicKey))
	assert.True(t, strings.HasPrefix(sealed, "pq."))

	assert.Equal(t, "sealed body", h.mustRun(sealed, "unseal", "-private-key", keys.PrivateKey))

	var signing keygenOutput
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "keygen", "-type", "sign")), &signing))
	assert.Equal(t, "sign", signing.Type)

	_, _, err := h.run("", "keygen", "-type", "rsa")
	assert.EqualError(t, err, `unknown key type "rsa"`)
}

func TestRun_MatrixKey(t *testing.T) {
	h := newHarness(t)
	poem := filepath.Join(t.TempDir(), "poem.txt")
	require.NoError(t, os.WriteFile(poem, []byte("first line\n\nsecond line\nthird line\n"), 0o600))

	var picked matrixKeyOutput
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "matrix-key", "-file", poem, "-n", "2", "-id", "k")), &picked))
	assert.Len(t, picked.Indices, 2)
	assert.Equal(t, "k", picked.KeyID)

	indices := make([]string, len(picked.Indices))
	for i, idx := range picked.Indices {
		indices[i] = strconv.Itoa(idx)
	}

	var again matrixKeyOutput
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "matrix-key", "-file", poem, "-indices", strings.Join(indices, ","), "-id", "k")), &again))
	assert.Equal(t, picked.Key, again.Key)

	bp := strings.TrimSpace(h.mustRun("poem secret", "blueprint-create", "-key", picked.Key))
	assert.Equal(t, "poem secret", h.mustRun(bp, "blueprint-open", "-key", again.Key))

	_, _, err := h.run("", "matrix-key", "-file", poem)
	assert.EqualError(t, err, "one of -n or -indices is required")

	_, _, err = h.run("", "matrix-key", "-file", poem, "-indices", "0,x")
	assert.ErrorContains(t, err, `invalid index "x"`)
}

func TestRun_ID(t *testing.T) {
	h := newHarness(t)

	assert.Regexp(t, `^[0-9A-Za-z_-]{21}\n$`, h.mustRun("", "id"))
	assert.Regexp(t, `^[0-9A-Za-z_-]{8}\n$`, h.mustRun("", "id", "-length", "8"))

	h.env["PASSVAULT_ID_LENGTH"] = "12"
	assert.Regexp(t, `^[0-9A-Za-z_-]{12}\n$`, h.mustRun("", "id"))
}

func TestRun_ConfigFile(t *testing.T) {
	h := newHarness(t)
	delete(h.env, "PASSVAULT_SUITE")
	path := filepath.Join(t.TempDir(), "passvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suite: kyber1024-mldsa87\n"), 0o600))

	var keys keygenOutput
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "-config", path, "keygen")), &keys))
	assert.Equal(t, passvault.SuiteKyber1024MLDSA87, keys.Suite)
}

func TestRun_DotEnv(t *testing.T) {
	h := newHarness(t)
	delete(h.env, "PASSVAULT_SUITE")
	require.NoError(t, os.WriteFile(h.envFile, []byte("PASSVAULT_SUITE=kyber1024-mldsa87\n"), 0o600))

	var keys keygenOutput
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "keygen")), &keys))
	assert.Equal(t, passvault.SuiteKyber1024MLDSA87, keys.Suite)
}

func TestRun_InvalidConfig(t *testing.T) {
	h := newHarness(t)
	h.env["PASSVAULT_SUITE"] = "rsa"

	_, _, err := h.run("", "version")
	assert.ErrorContains(t, err, "unsupported suite")
}

func TestRun_DebugLogging(t *testing.T) {
	h := newHarness(t)
	h.env["PASSVAULT_LOG_LEVEL"] = "debug"

	_, stderr, err := h.run("", "id")
	require.NoError(t, err)
	assert.Contains(t, stderr, "running")
	assert.Contains(t, stderr, "command=id")
}
