// Package unlockhash builds and verifies unlock hashes: compact artifacts
// that bind one or two passphrases to a random salt without storing either
// passphrase.
//
// Single mode:
//
//	{salt_hex}.{base62(HMAC(Argon2id(p, salt), p))[0:15]}
//
// Dual mode, verifiable by either passphrase:
//
//	dual.{salt_hex}.{base62(macA XOR macB)[0:30]}.{base62(macA[0:3])}.{base62(macB[0:3])}
//
// where macX = HMAC(Argon2id(pX, salt), salt).
//
// Single mode MACs the passphrase and dual mode MACs the salt. Existing
// hashes depend on both constructions, so neither is changed.
//
// Verification strength differs by mode. A single-mode hash keeps 15 base62
// characters of MAC (about 89 bits): a wrong passphrase is accepted with
// probability about 2^-89. Dual mode verifies against 3-byte checksums: a
// wrong passphrase is accepted with probability about 2^-24 per checksum,
// 2^-23 overall. Callers that need a stronger bound use single mode.
package unlockhash
