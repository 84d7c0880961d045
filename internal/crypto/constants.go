package crypto

const (
	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// SaltSize is the size of the random salt used by unlock hashes and
	// blueprints.
	SaltSize = 16
	// AssemblerSecretSize is the size of a blueprint's masked secret.
	AssemblerSecretSize = 16
	// OneTimeKeySize is the size of a voucher's one-time encryption key.
	OneTimeKeySize = 32

	// KeySize is the output length of every key derivation in passvault.
	KeySize = 32
)

const (
	// HKDFContextBlueprint separates blueprint keys derived from KEM
	// shared secrets from any other use of the same secret.
	HKDFContextBlueprint = "passvault:blueprint:v1"

	// SignatureContextVoucher is mixed into voucher signature transcripts.
	SignatureContextVoucher = "passvault:voucher:v1"
)
