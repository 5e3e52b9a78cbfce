package xp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Hxv4Tag is the index chunk tag of the encrypted file table reference.
const Hxv4Tag = "Hxv4"

const hxv4Size = 14

// Hxv4 locates the encrypted file table inside the archive.
type Hxv4 struct {
	Offset uint64
	Size   uint32
	Flag   uint16 // Nonce selector
}

// ParseHxv4 decodes an Hxv4 chunk.
func ParseHxv4(data []byte) (Hxv4, error) {
	if len(data) != hxv4Size {
		return Hxv4{}, fmt.Errorf("xp3: Hxv4 chunk has %d bytes, want %d", len(data), hxv4Size)
	}
	return Hxv4{
		Offset: binary.LittleEndian.Uint64(data[0:8]),
		Size:   binary.LittleEndian.Uint32(data[8:12]),
		Flag:   binary.LittleEndian.Uint16(data[12:14]),
	}, nil
}

// Hxv4 returns the parsed Hxv4 reference of the archive.
func (a *Archive) Hxv4() (Hxv4, error) {
	data, err := a.Chunk(Hxv4Tag)
	if err != nil {
		return Hxv4{}, err
	}
	return ParseHxv4(data)
}

// ReadTable reads the encrypted table blob the reference points at.
func (h Hxv4) ReadTable(r io.ReaderAt) ([]byte, error) {
	blob := make([]byte, h.Size)
	n, err := r.ReadAt(blob, int64(h.Offset))
	if err != nil && !(n == len(blob) && errors.Is(err, io.EOF)) {
		return nil, fmt.Errorf("xp3: read encrypted table: %w", err)
	}
	return blob, nil
}
