// Package xp3 reads the index of XP3 containers: the chained index blocks
// and the tagged chunks inside them, including the Hxv4 reference to the
// encrypted file table.
package xp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Magic is the 11-byte XP3 file signature.
const Magic = "XP3\r\n \n\x1a\x8b\x67\x01"

// Index block flags.
const (
	FlagCompressedZlib = 0x01
	FlagContinue       = 0x80
)

// maxIndexSize bounds index allocations for corrupt archives.
const maxIndexSize = 1 << 30

var (
	// ErrNotXP3 is returned when the signature does not match.
	ErrNotXP3 = errors.New("xp3: invalid archive magic")

	// ErrChunkNotFound is returned when an index chunk tag is absent.
	ErrChunkNotFound = errors.New("xp3: index chunk not found")
)

// Chunk is one tagged record of the archive index.
type Chunk struct {
	Tag  [4]byte
	Data []byte
}

// Archive holds the index chunks of an XP3 container.
type Archive struct {
	Chunks []Chunk
}

// IsArchive reports whether r starts with the XP3 signature. The read
// position is restored.
func IsArchive(r io.ReadSeeker) (bool, error) {
	var magic [len(Magic)]byte
	n, err := io.ReadFull(r, magic[:])
	if _, serr := r.Seek(int64(-n), io.SeekCurrent); serr != nil {
		return false, serr
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(magic[:]) == Magic, nil
}

// Open reads the signature at the current position and every chained
// index block.
func Open(r io.ReadSeeker) (*Archive, error) {
	var magic [len(Magic)]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("xp3: read magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return nil, ErrNotXP3
	}

	a := &Archive{}
	flags := byte(FlagContinue)
	for flags&FlagContinue != 0 {
		var offset int64
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			return nil, fmt.Errorf("xp3: read index offset: %w", err)
		}
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("xp3: seek index: %w", err)
		}

		var err error
		flags, err = readByte(r)
		if err != nil {
			return nil, fmt.Errorf("xp3: read index flags: %w", err)
		}

		data, err := readIndexBlock(r, flags)
		if err != nil {
			return nil, err
		}
		if err := a.addIndexData(data); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readIndexBlock reads the body of one index block following its flag byte.
func readIndexBlock(r io.Reader, flags byte) ([]byte, error) {
	if flags&FlagCompressedZlib != 0 {
		var sizes struct {
			Compressed int64
			Real       int64
		}
		if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
			return nil, fmt.Errorf("xp3: read index sizes: %w", err)
		}
		if sizes.Compressed < 0 || sizes.Compressed > maxIndexSize {
			return nil, fmt.Errorf("xp3: bad compressed index size %d", sizes.Compressed)
		}
		compressed := make([]byte, sizes.Compressed)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, fmt.Errorf("xp3: read compressed index: %w", err)
		}

		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("xp3: index decompression: %w", err)
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("xp3: index decompression: %w", err)
		}
		return data, nil
	}

	var size int64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("xp3: read index size: %w", err)
	}
	if size < 0 || size > maxIndexSize {
		return nil, fmt.Errorf("xp3: bad index size %d", size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("xp3: read index: %w", err)
	}
	return data, nil
}

// addIndexData splits an index block into (tag, int64 size, data) chunks.
func (a *Archive) addIndexData(data []byte) error {
	const headerSize = 12
	for off := 0; off < len(data); {
		if len(data)-off < headerSize {
			return fmt.Errorf("xp3: truncated chunk header at %d", off)
		}
		var c Chunk
		copy(c.Tag[:], data[off:off+4])
		size := int64(binary.LittleEndian.Uint64(data[off+4 : off+12]))
		off += headerSize
		if size < 0 || size > int64(len(data)-off) {
			return fmt.Errorf("xp3: chunk %q size %d overruns index", c.Tag[:], size)
		}
		c.Data = data[off : off+int(size)]
		off += int(size)
		a.Chunks = append(a.Chunks, c)
	}
	return nil
}

// Chunk returns the data of the last index chunk with the given tag.
func (a *Archive) Chunk(tag string) ([]byte, error) {
	for i := len(a.Chunks) - 1; i >= 0; i-- {
		if string(a.Chunks[i].Tag[:]) == tag {
			return a.Chunks[i].Data, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrChunkNotFound, tag)
}
