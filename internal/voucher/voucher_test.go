package voucher

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vaultsandbox/passvault-go/internal/apierrors"
	"github.com/vaultsandbox/passvault-go/internal/crypto"
	"github.com/vaultsandbox/passvault-go/internal/unlockhash"
)

var systemSecret = []byte("system-wide secret for tests")

func testHashes(t *testing.T) (*unlockhash.Generator, *Envelope) {
	t.Helper()
	p := unlockhash.DefaultParams()
	p.KDF = crypto.TestKDFParams()
	g := unlockhash.New(p)
	return g, New(g)
}

func mustHash(t *testing.T, g *unlockhash.Generator, passphrase string) string {
	t.Helper()
	h, err := g.GenerateSingle(passphrase)
	if err != nil {
		t.Fatalf("GenerateSingle() error = %v", err)
	}
	return h
}

func TestCreateDecrypt_RoundTrip(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "correct horse")

	tests := []struct {
		name    string
		payload string
	}{
		{"text", "meet at dawn"},
		{"empty", ""},
		{"unicode", "schlüssel 🔑"},
		{"json-looking", `{"v":1,"iv":"AAAA"}`},
		{"long", strings.Repeat("payload ", 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.Create(tt.payload, uh, systemSecret)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			got, err := e.Decrypt(v, "correct horse", uh, systemSecret)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if got != tt.payload {
				t.Errorf("Decrypt() = %q, want %q", got, tt.payload)
			}
		})
	}
}

func TestCreateDecrypt_DualHash(t *testing.T) {
	g, e := testHashes(t)
	uh, err := g.GenerateDual("alice phrase", "bob phrase")
	if err != nil {
		t.Fatalf("GenerateDual() error = %v", err)
	}

	v, err := e.Create("shared", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, p := range []string{"alice phrase", "bob phrase"} {
		got, err := e.Decrypt(v, p, uh, systemSecret)
		if err != nil {
			t.Fatalf("Decrypt(%q) error = %v", p, err)
		}
		if got != "shared" {
			t.Errorf("Decrypt(%q) = %q, want %q", p, got, "shared")
		}
	}
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "right")

	v, err := e.Create("secret", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = e.Decrypt(v, "wrong", uh, systemSecret)
	if !errors.Is(err, apierrors.ErrInvalidPassphrase) {
		t.Errorf("Decrypt() error = %v, want ErrInvalidPassphrase", err)
	}
}

func TestDecrypt_WrongSystemSecret(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "pass")

	v, err := e.Create("secret", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = e.Decrypt(v, "pass", uh, []byte("another secret"))
	var authErr *apierrors.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("Decrypt() error = %v, want AuthenticationError", err)
	}
	if authErr.Stage != "ek" {
		t.Errorf("Stage = %q, want %q", authErr.Stage, "ek")
	}
}

func TestDecrypt_OtherUnlockHash(t *testing.T) {
	g, e := testHashes(t)
	uh1 := mustHash(t, g, "pass")
	uh2 := mustHash(t, g, "pass")

	v, err := e.Create("secret", uh1, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// the passphrase verifies against uh2, but the voucher is bound to uh1
	if _, err := e.Decrypt(v, "pass", uh2, systemSecret); !errors.Is(err, apierrors.ErrMalformedVoucher) {
		t.Errorf("Decrypt() error = %v, want ErrMalformedVoucher", err)
	}
}

func TestCreate_Nondeterministic(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "pass")

	a, err := e.Create("same", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := e.Create("same", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a == b {
		t.Fatal("two Create() calls produced the same voucher")
	}

	ra, _ := Parse(a)
	rb, _ := Parse(b)
	if ra.EncryptedEK == rb.EncryptedEK || ra.IV == rb.IV {
		t.Error("one-time key material should differ between vouchers")
	}
}

func TestCreate_RecordShape(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "pass")

	v, err := e.Create("x", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	body, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		t.Fatalf("outer base64: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	for _, name := range recordFields {
		if _, ok := raw[name]; !ok {
			t.Errorf("record is missing %q", name)
		}
	}
	if len(raw) != len(recordFields) {
		t.Errorf("record has %d fields, want %d", len(raw), len(recordFields))
	}

	r, err := Parse(v)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if r.Version != Version {
		t.Errorf("Version = %d, want %d", r.Version, Version)
	}
	h, _ := unlockhash.Parse(uh)
	if r.Salt != base64.StdEncoding.EncodeToString(h.Salt) {
		t.Errorf("Salt = %q, want the unlock hash salt", r.Salt)
	}
}

func TestDecrypt_TamperEveryByte(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "pass")

	v, err := e.Create("tamper me", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	body, _ := base64.StdEncoding.DecodeString(v)

	for _, mask := range []byte{0x01, 0x80} {
		for i := range body {
			tampered := append([]byte(nil), body...)
			tampered[i] ^= mask

			got, err := e.Decrypt(base64.StdEncoding.EncodeToString(tampered), "pass", uh, systemSecret)
			if err == nil {
				t.Fatalf("byte %d ^ %#x: Decrypt() = %q, want error", i, mask, got)
			}
			if !errors.Is(err, apierrors.ErrMalformedInput) && !errors.Is(err, apierrors.ErrAuthentication) {
				t.Fatalf("byte %d ^ %#x: error = %v, want malformed or authentication", i, mask, err)
			}
		}
	}
}

func TestDecrypt_MalformedVoucher(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "pass")

	valid, err := e.Create("x", uh, systemSecret)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	body, _ := base64.StdEncoding.DecodeString(valid)
	var rec map[string]any
	_ = json.Unmarshal(body, &rec)

	encode := func(m map[string]any) string {
		b, _ := json.Marshal(m)
		return base64.StdEncoding.EncodeToString(b)
	}
	with := func(edit func(map[string]any)) string {
		m := make(map[string]any, len(rec))
		for k, v := range rec {
			m[k] = v
		}
		edit(m)
		return encode(m)
	}

	tests := []struct {
		name    string
		voucher string
	}{
		{"not base64", "%%%"},
		{"not json", base64.StdEncoding.EncodeToString([]byte("not json"))},
		{"json array", base64.StdEncoding.EncodeToString([]byte("[]"))},
		{"missing field", with(func(m map[string]any) { delete(m, "ekIv") })},
		{"extra field", with(func(m map[string]any) { m["extra"] = "x" })},
		{"renamed case", with(func(m map[string]any) { m["IV"] = m["iv"]; delete(m, "iv") })},
		{"version 2", with(func(m map[string]any) { m["v"] = 2 })},
		{"version string", with(func(m map[string]any) { m["v"] = "1" })},
		{"field not string", with(func(m map[string]any) { m["authTag"] = 7 })},
		{"field not base64", with(func(m map[string]any) { m["encryptedData"] = "@@@" })},
		{"short nonce", with(func(m map[string]any) { m["iv"] = "AAAA" })},
		{"short tag", with(func(m map[string]any) { m["ekAuthTag"] = "AAAA" })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Decrypt(tt.voucher, "pass", uh, systemSecret)
			if !errors.Is(err, apierrors.ErrMalformedVoucher) {
				t.Errorf("Decrypt() error = %v, want ErrMalformedVoucher", err)
			}
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "pass")

	if _, err := e.Create("x", uh, nil); !errors.Is(err, apierrors.ErrInvalidArgument) {
		t.Errorf("Create() with empty secret error = %v, want ErrInvalidArgument", err)
	}
	if _, err := e.Decrypt("", "pass", uh, nil); !errors.Is(err, apierrors.ErrInvalidArgument) {
		t.Errorf("Decrypt() with empty secret error = %v, want ErrInvalidArgument", err)
	}
	if _, err := e.Create("x", "not-a-hash", systemSecret); !errors.Is(err, apierrors.ErrMalformedInput) {
		t.Errorf("Create() with bad hash error = %v, want ErrMalformedInput", err)
	}
	if _, err := e.Decrypt("", "pass", "not-a-hash", systemSecret); !errors.Is(err, apierrors.ErrMalformedInput) {
		t.Errorf("Decrypt() with bad hash error = %v, want ErrMalformedInput", err)
	}
}

type stubVerifier struct {
	ok  bool
	err error
}

func (s stubVerifier) Verify(string, string, unlockhash.Mode) (bool, error) {
	return s.ok, s.err
}

func TestDecrypt_VerifierOrdering(t *testing.T) {
	g, _ := testHashes(t)
	uh := mustHash(t, g, "pass")

	// passphrase failure is reported before the voucher is even decoded
	e := New(stubVerifier{ok: false})
	if _, err := e.Decrypt("%%%", "pass", uh, systemSecret); !errors.Is(err, apierrors.ErrInvalidPassphrase) {
		t.Errorf("Decrypt() error = %v, want ErrInvalidPassphrase", err)
	}

	kdfErr := &apierrors.KDFError{Err: errors.New("out of memory")}
	e = New(stubVerifier{err: kdfErr})
	if _, err := e.Decrypt("%%%", "pass", uh, systemSecret); !errors.Is(err, apierrors.ErrKDF) {
		t.Errorf("Decrypt() error = %v, want ErrKDF", err)
	}
}

func TestVoucher_Properties(t *testing.T) {
	g, e := testHashes(t)
	uh := mustHash(t, g, "property pass")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("round trip for the generating passphrase", prop.ForAll(
		func(payload string) bool {
			v, err := e.Create(payload, uh, systemSecret)
			if err != nil {
				return false
			}
			got, err := e.Decrypt(v, "property pass", uh, systemSecret)
			return err == nil && got == payload
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
