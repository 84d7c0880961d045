// Package passvault protects small secrets behind human passphrases without
// storing the passphrases.
//
// It provides three protocols:
//
//   - Unlock hashes: a compact, non-reversible artifact binding one or two
//     passphrases to a fresh salt, verified against candidates later.
//   - Vouchers: a two-layer envelope. The payload is sealed under a one-time
//     key, and that key is sealed under a key derived from an unlock hash and
//     a long-lived system secret.
//   - Blueprints: a payload sealed under Argon2id(key || secret, salt), where
//     the per-message secret travels inside the artifact masked by the nonce.
//
// Post-quantum key encapsulation and signatures (Kyber1024 or ML-KEM-768
// with ML-DSA) are available to seal blueprints for a recipient and to sign
// vouchers.
//
// Basic usage:
//
//	p, err := passvault.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	hash, err := p.GenerateUnlockHash("correct horse battery staple")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := p.CreateVoucher("the payload", hash, systemSecret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	payload, err := p.DecryptVoucher(v, "correct horse battery staple", hash, systemSecret)
//	if errors.Is(err, passvault.ErrInvalidPassphrase) {
//	    // wrong passphrase
//	}
//
// Every artifact is created with Argon2id at 3 passes over 64 MiB. Artifacts
// created with other parameters (see WithKDFParams) only verify under the
// same parameters.
package passvault
