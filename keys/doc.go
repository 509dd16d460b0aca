// Package keys manages the Baby Jubjub private keys used to sign PODs.
//
// API stability:
//
// Stable:
//   - Pure, deterministic primitives for key generation, role-key derivation and
//     signer public key formatting.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and related functions).
//     These are local-first utilities and are not part of the POD format.
package keys
