package cx3

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/opd-ai/go-cx3/internal"
)

// KeyParams holds the per-title secrets from which the index keys are
// derived.
type KeyParams struct {
	BootstrapString  string
	WarningString    string
	ParamsBlob       []byte
	ArchiveUniqueKey string
	UpperKeySeed     []byte // At least 4 bytes
}

// TableKeys are the XChaCha20-Poly1305 key and the two nonces used for the
// encrypted index.
type TableKeys struct {
	Key    [32]byte
	NonceA [24]byte
	NonceB [24]byte
}

// Validate checks that the parameters can be derived from.
func (p *KeyParams) Validate() error {
	if len(p.UpperKeySeed) < 4 {
		return fmt.Errorf("%w: upper key seed has %d bytes, need at least 4",
			ErrConfiguration, len(p.UpperKeySeed))
	}
	return nil
}

// Derive computes the table keys.
//
// The first 64 bytes of the key buffer are the fnv-blake digests of the
// bootstrap+warning strings and of the parameter blob, masked with an
// Argon2i key; the last 32 are the digest of the archive key masked with
// the digest of the upper key seed.
func (p *KeyParams) Derive() (*TableKeys, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bootstrapAndWarning, err := utf16LE(p.BootstrapString + p.WarningString)
	if err != nil {
		return nil, fmt.Errorf("cx3: encode bootstrap strings: %w", err)
	}
	archiveKey, err := utf16LE(p.ArchiveUniqueKey)
	if err != nil {
		return nil, fmt.Errorf("cx3: encode archive key: %w", err)
	}

	paramsHash := internal.Sha3_224(p.ParamsBlob)
	lowerKey := internal.Argon2i(bootstrapAndWarning,
		internal.IndexKeyArgon2Config(paramsHash[:16]))[:32]
	upperKey := fnvBlake(p.UpperKeySeed, binary.LittleEndian.Uint32(p.UpperKeySeed[:4]))

	var buf [96]byte
	b0 := fnvBlake(bootstrapAndWarning, 0)
	b1 := fnvBlake(p.ParamsBlob, 1)
	b2 := fnvBlake(archiveKey, 2)
	copy(buf[0:32], b0[:])
	copy(buf[32:64], b1[:])
	copy(buf[64:96], b2[:])

	for i := 0; i < 64; i++ {
		buf[i] ^= lowerKey[i%32]
	}
	for i := 64; i < 96; i++ {
		buf[i] ^= upperKey[i-64]
	}

	keys := &TableKeys{}
	copy(keys.Key[:], buf[0:32])
	copy(keys.NonceA[:], buf[32:56])
	copy(keys.NonceB[:], buf[64:88])
	return keys, nil
}

// Nonce returns the nonce selected by an Hxv4 flag: 0 selects NonceB and 1
// selects NonceA.
func (k *TableKeys) Nonce(flag uint16) ([]byte, error) {
	switch flag {
	case 0:
		return k.NonceB[:], nil
	case 1:
		return k.NonceA[:], nil
	default:
		return nil, fmt.Errorf("cx3: invalid Hxv4 flag value %d", flag)
	}
}

// triple32 is a 32-bit integer hash with three multiply rounds.
func triple32(v uint32) uint32 {
	v ^= v >> 17
	v *= 0xED5AD4BB
	v ^= v >> 11
	v *= 0xAC4C1B51
	v ^= v >> 15
	v *= 0x31848BAB
	v ^= v >> 14
	return v
}

// fnvBlake folds data into a 32-byte pad with a triple32-chained FNV
// state seeded from base, then hashes data followed by the pad with
// BLAKE2s-256.
func fnvBlake(data []byte, base uint32) [32]byte {
	h := (0x811C9DC5 ^ base) * 0x01000193

	var pad [32]byte
	for i, b := range data {
		h = triple32(h ^ uint32(b))
		off := (i * 4) % 32
		pad[off] ^= byte(h)
		pad[off+1] ^= byte(h >> 8)
		pad[off+2] ^= byte(h >> 16)
		pad[off+3] ^= byte(h >> 24)
	}

	return internal.Blake2s256(data, pad[:])
}

// utf16LE encodes s as UTF-16LE without a byte order mark.
func utf16LE(s string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	return enc.Bytes([]byte(s))
}
