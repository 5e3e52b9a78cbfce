package internal

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestBlake2s256(t *testing.T) {
	// BLAKE2s-256 of the empty input.
	want := "69217a3079908094e11121d042354a7c1f55b6482ca1a51e1b250dfd1ed0eef9"
	got := Blake2s256()
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Blake2s256() = %x, want %s", got, want)
	}

	split := Blake2s256([]byte("ab"), []byte("c"))
	joined := Blake2s256([]byte("abc"))
	if split != joined {
		t.Error("Blake2s256 should hash the concatenation of its parts")
	}
}

func TestSha3_224(t *testing.T) {
	want := "6b4e03423667dbb73b6e15454f0eb1abd4597f9a1b078e3f5b5a6bc7"
	got := Sha3_224(nil)
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Sha3_224() = %x, want %s", got, want)
	}
}

func TestArgon2i(t *testing.T) {
	cfg := IndexKeyArgon2Config([]byte("saltsaltsaltsalt"))
	a := Argon2i([]byte("password"), cfg)
	b := Argon2i([]byte("password"), cfg)
	if len(a) != int(cfg.OutputLen) {
		t.Fatalf("output length = %d, want %d", len(a), cfg.OutputLen)
	}
	if !bytes.Equal(a, b) {
		t.Error("Argon2i is not deterministic")
	}
	if bytes.Equal(a, Argon2i([]byte("Password"), cfg)) {
		t.Error("different passwords gave the same key")
	}
}

func TestXChaCha20Poly1305(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	nonce := bytes.Repeat([]byte{0x24}, NonceSize)
	plaintext := []byte("encrypted file table")

	sealed, err := SealXChaCha20Poly1305(key, nonce, plaintext)
	if err != nil {
		t.Fatalf("Seal error = %v", err)
	}
	if len(sealed) != TagSize+len(plaintext) {
		t.Fatalf("sealed length = %d, want %d", len(sealed), TagSize+len(plaintext))
	}

	got, err := OpenXChaCha20Poly1305(key, nonce, sealed[:TagSize], sealed[TagSize:])
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Open = %q, want %q", got, plaintext)
	}

	if _, err := OpenXChaCha20Poly1305(key, nonce[:12], sealed[:TagSize], sealed[TagSize:]); err == nil {
		t.Error("Open accepted a short nonce")
	}
	if _, err := OpenXChaCha20Poly1305(key, nonce, sealed[:8], sealed[TagSize:]); err == nil {
		t.Error("Open accepted a short tag")
	}
	if _, err := OpenXChaCha20Poly1305(key[:16], nonce, sealed[:TagSize], sealed[TagSize:]); err == nil {
		t.Error("Open accepted a short key")
	}
}
