// Package crypto provides the cryptographic services the passvault protocols
// are built from.
//
// # Services
//
//   - Argon2id (RFC 9106): memory-hard derivation of 32-byte keys from
//     passphrases and caller keys. Default cost: 3 passes over 64 MiB with
//     2 lanes. See [DeriveKey].
//
//   - AES-256-GCM: authenticated encryption with the tag carried separately
//     from the ciphertext, as the wire formats require. See [Seal] and
//     [Open].
//
//   - HMAC-SHA-256: unlock-hash MACs and voucher wrapping-key derivation.
//
//   - HKDF-SHA-512 (RFC 5869): expansion of KEM shared secrets into
//     blueprint keys. See [ExpandKEMSecret].
//
// # Randomness
//
// All salts, nonces and one-time keys come from [RandomBytes], which reads
// the operating system CSPRNG and panics if it fails. There is no fallback
// source.
//
// # Key Hygiene
//
// Derived keys are transient. Callers wipe them with [Wipe] once the
// encrypt or decrypt call that needed them returns.
package crypto
