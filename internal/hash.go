// Package internal provides cryptographic primitives for key derivation
// and index decryption. This package wraps golang.org/x/crypto.
package internal

import (
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// Blake2s256 computes an unkeyed 256-bit BLAKE2s hash over the
// concatenation of parts.
func Blake2s256(parts ...[]byte) [32]byte {
	h, err := blake2s.New256(nil)
	if err != nil {
		// Only a key longer than 32 bytes makes New256 fail.
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Sha3_224 computes a SHA3-224 hash.
func Sha3_224(data []byte) [28]byte {
	return sha3.Sum224(data)
}
