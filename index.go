package cx3

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/opd-ai/go-cx3/internal"
)

// indexHeaderSize is the size of the little-endian length prefix in front
// of the compressed table.
const indexHeaderSize = 4

// DecryptIndex opens an encrypted Hxv4 table blob and returns the
// decompressed marshalled table. The blob is a 16-byte Poly1305 tag
// followed by the ciphertext; flag selects the nonce.
func DecryptIndex(keys *TableKeys, flag uint16, blob []byte) ([]byte, error) {
	nonce, err := keys.Nonce(flag)
	if err != nil {
		return nil, err
	}
	if len(blob) < internal.TagSize {
		return nil, fmt.Errorf("cx3: encrypted index too short: %d bytes", len(blob))
	}

	plaintext, err := internal.OpenXChaCha20Poly1305(keys.Key[:], nonce,
		blob[:internal.TagSize], blob[internal.TagSize:])
	if err != nil {
		return nil, fmt.Errorf("cx3: index authentication: %w", err)
	}
	if len(plaintext) < indexHeaderSize {
		return nil, fmt.Errorf("cx3: decrypted index too short: %d bytes", len(plaintext))
	}

	zr, err := zlib.NewReader(bytes.NewReader(plaintext[indexHeaderSize:]))
	if err != nil {
		return nil, fmt.Errorf("cx3: index decompression: %w", err)
	}
	defer zr.Close()

	table, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("cx3: index decompression: %w", err)
	}
	return table, nil
}

// EncryptIndex is the inverse of DecryptIndex. The length prefix holds the
// uncompressed table size.
func EncryptIndex(keys *TableKeys, flag uint16, table []byte) ([]byte, error) {
	nonce, err := keys.Nonce(flag)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var header [indexHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(table)))
	buf.Write(header[:])

	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(table); err != nil {
		return nil, fmt.Errorf("cx3: index compression: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("cx3: index compression: %w", err)
	}

	return internal.SealXChaCha20Poly1305(keys.Key[:], nonce, buf.Bytes())
}
