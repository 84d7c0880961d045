package pqc

import (
	"fmt"
	"sort"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/vaultsandbox/passvault-go/internal/codec"
)

// Suite names.
const (
	SuiteKyber1024MLDSA87 = "kyber1024-mldsa87"
	SuiteMLKEM768MLDSA65  = "mlkem768-mldsa65"

	// DefaultSuite is used when no suite is configured.
	DefaultSuite = SuiteKyber1024MLDSA87
)

var suites = map[string]func() (kem.Scheme, sign.Scheme){
	SuiteKyber1024MLDSA87: func() (kem.Scheme, sign.Scheme) { return kyber1024.Scheme(), mldsa87.Scheme() },
	SuiteMLKEM768MLDSA65:  func() (kem.Scheme, sign.Scheme) { return mlkem768.Scheme(), mldsa65.Scheme() },
}

// Sizes lists the byte lengths a suite accepts.
type Sizes struct {
	KEMPublicKey   int
	KEMPrivateKey  int
	KEMCiphertext  int
	SharedSecret   int
	SignPublicKey  int
	SignPrivateKey int
	Signature      int
}

// KeyPair holds marshalled key material.
type KeyPair struct {
	// PublicKey is the raw public key bytes.
	PublicKey []byte
	// PrivateKey is the raw private key bytes.
	PrivateKey []byte
	// PublicKeyB64 is the public key encoded as URL-safe base64.
	PublicKeyB64 string
}

// Suite is a KEM and a signature scheme used together.
type Suite interface {
	Name() string
	Sizes() Sizes

	GenerateKEMKeyPair() (*KeyPair, error)
	Encapsulate(publicKey []byte) (ciphertext, sharedSecret []byte, err error)
	Decapsulate(ciphertext, privateKey []byte) ([]byte, error)

	GenerateSigningKeyPair() (*KeyPair, error)
	Sign(message, privateKey []byte) ([]byte, error)
	Verify(signature, message, publicKey []byte) error
}

// Init returns the suite registered under name. An empty name selects
// DefaultSuite.
func Init(name string) (Suite, error) {
	if name == "" {
		name = DefaultSuite
	}
	build, ok := suites[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSuite, name)
	}
	k, s := build()
	return &circlSuite{name: name, kem: k, sig: s}, nil
}

// Names returns the registered suite names in sorted order.
func Names() []string {
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type circlSuite struct {
	name string
	kem  kem.Scheme
	sig  sign.Scheme
}

func (s *circlSuite) Name() string { return s.name }

func (s *circlSuite) Sizes() Sizes {
	return Sizes{
		KEMPublicKey:   s.kem.PublicKeySize(),
		KEMPrivateKey:  s.kem.PrivateKeySize(),
		KEMCiphertext:  s.kem.CiphertextSize(),
		SharedSecret:   s.kem.SharedKeySize(),
		SignPublicKey:  s.sig.PublicKeySize(),
		SignPrivateKey: s.sig.PrivateKeySize(),
		Signature:      s.sig.SignatureSize(),
	}
}

func (s *circlSuite) GenerateKEMKeyPair() (*KeyPair, error) {
	pub, priv, err := s.kem.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	// MarshalBinary never fails for keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &KeyPair{
		PublicKey:    pubBytes,
		PrivateKey:   privBytes,
		PublicKeyB64: codec.ToBase64URL(pubBytes),
	}, nil
}

func (s *circlSuite) Encapsulate(publicKey []byte) ([]byte, []byte, error) {
	if err := checkSize("kem public key", publicKey, s.kem.PublicKeySize(), ErrInvalidKeySize); err != nil {
		return nil, nil, err
	}

	pk, err := s.kem.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal public key: %w", err)
	}
	return s.kem.Encapsulate(pk)
}

func (s *circlSuite) Decapsulate(ciphertext, privateKey []byte) ([]byte, error) {
	if err := checkSize("kem ciphertext", ciphertext, s.kem.CiphertextSize(), ErrInvalidCiphertextSize); err != nil {
		return nil, err
	}
	if err := checkSize("kem private key", privateKey, s.kem.PrivateKeySize(), ErrInvalidKeySize); err != nil {
		return nil, err
	}

	sk, err := s.kem.UnmarshalBinaryPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("unmarshal private key: %w", err)
	}
	return s.kem.Decapsulate(sk, ciphertext)
}

func (s *circlSuite) GenerateSigningKeyPair() (*KeyPair, error) {
	pub, priv, err := s.sig.GenerateKey()
	if err != nil {
		return nil, err
	}

	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &KeyPair{
		PublicKey:    pubBytes,
		PrivateKey:   privBytes,
		PublicKeyB64: codec.ToBase64URL(pubBytes),
	}, nil
}

func (s *circlSuite) Sign(message, privateKey []byte) ([]byte, error) {
	if err := checkSize("signing private key", privateKey, s.sig.PrivateKeySize(), ErrInvalidKeySize); err != nil {
		return nil, err
	}

	sk, err := s.sig.UnmarshalBinaryPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("unmarshal private key: %w", err)
	}
	return s.sig.Sign(sk, message, nil), nil
}

func (s *circlSuite) Verify(signature, message, publicKey []byte) error {
	if err := checkSize("signature", signature, s.sig.SignatureSize(), ErrInvalidSignatureSize); err != nil {
		return err
	}
	if err := checkSize("signing public key", publicKey, s.sig.PublicKeySize(), ErrInvalidKeySize); err != nil {
		return err
	}

	pk, err := s.sig.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("unmarshal public key: %w", err)
	}

	if !s.sig.Verify(pk, message, signature, nil) {
		return ErrSignatureVerificationFailed
	}
	return nil
}

func checkSize(what string, b []byte, want int, sentinel error) error {
	if len(b) != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", sentinel, what, len(b), want)
	}
	return nil
}
