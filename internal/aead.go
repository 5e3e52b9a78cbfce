package internal

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sizes of the XChaCha20-Poly1305 parameters.
const (
	KeySize   = chacha20poly1305.KeySize
	NonceSize = chacha20poly1305.NonceSizeX
	TagSize   = chacha20poly1305.Overhead
)

// OpenXChaCha20Poly1305 authenticates and decrypts ciphertext with a
// detached tag.
func OpenXChaCha20Poly1305(key, nonce, tag, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce length %d, want %d", len(nonce), NonceSize)
	}
	if len(tag) != TagSize {
		return nil, fmt.Errorf("tag length %d, want %d", len(tag), TagSize)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	return aead.Open(nil, nonce, sealed, nil)
}

// SealXChaCha20Poly1305 encrypts plaintext and returns the detached tag
// followed by the ciphertext, the layout stored in archives.
func SealXChaCha20Poly1305(key, nonce, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce length %d, want %d", len(nonce), NonceSize)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct, tag := sealed[:len(plaintext)], sealed[len(plaintext):]

	out := make([]byte, 0, len(sealed))
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}
