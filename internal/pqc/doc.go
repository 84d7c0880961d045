// Package pqc provides the post-quantum capabilities passvault composes
// with its symmetric protocols: a key encapsulation mechanism and a
// signature scheme, bundled as a named Suite and backed by circl.
//
// Two suites are registered:
//
//	kyber1024-mldsa87  Kyber1024 KEM with ML-DSA-87 signatures (default)
//	mlkem768-mldsa65   ML-KEM-768 KEM with ML-DSA-65 signatures
//
// Every key, ciphertext and signature length is checked before it is
// handed to circl.
package pqc
