package xp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func chunk(tag string, data []byte) []byte {
	out := append([]byte(tag), make([]byte, 8)...)
	binary.LittleEndian.PutUint64(out[4:], uint64(len(data)))
	return append(out, data...)
}

func hxv4Data(offset uint64, size uint32, flag uint16) []byte {
	b := make([]byte, hxv4Size)
	binary.LittleEndian.PutUint64(b[0:], offset)
	binary.LittleEndian.PutUint32(b[8:], size)
	binary.LittleEndian.PutUint16(b[12:], flag)
	return b
}

func int64LE(v int64) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(v))
}

// buildArchive lays out the magic, a payload and one uncompressed index
// block holding index.
func buildArchive(payload, index []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	indexOffset := int64(len(Magic) + 8 + len(payload))
	buf.Write(int64LE(indexOffset))
	buf.Write(payload)
	buf.WriteByte(0)
	buf.Write(int64LE(int64(len(index))))
	buf.Write(index)
	return buf.Bytes()
}

func TestOpenPlainIndex(t *testing.T) {
	payload := []byte("0123456789abcdef")
	index := append(chunk("File", []byte("ignored")),
		chunk(Hxv4Tag, hxv4Data(uint64(len(Magic)+8+4), 8, 1))...)
	data := buildArchive(payload, index)

	r := bytes.NewReader(data)
	ok, err := IsArchive(r)
	if err != nil || !ok {
		t.Fatalf("IsArchive() = %v, %v", ok, err)
	}
	if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
		t.Fatalf("IsArchive moved the read position to %d", pos)
	}

	a, err := Open(r)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(a.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(a.Chunks))
	}

	ref, err := a.Hxv4()
	if err != nil {
		t.Fatalf("Hxv4() error = %v", err)
	}
	if ref.Size != 8 || ref.Flag != 1 {
		t.Errorf("Hxv4 = %+v", ref)
	}

	blob, err := ref.ReadTable(r)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if string(blob) != "456789ab" {
		t.Errorf("ReadTable() = %q, want %q", blob, "456789ab")
	}
}

func TestOpenChainedCompressedIndex(t *testing.T) {
	first := chunk("Hxv4", hxv4Data(1, 1, 0))
	second := chunk("Hxv4", hxv4Data(2, 2, 1))

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write(second)
	zw.Close()

	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.Write(int64LE(int64(len(Magic) + 8)))

	// First block: uncompressed, continued.
	buf.WriteByte(FlagContinue)
	buf.Write(int64LE(int64(len(first))))
	buf.Write(first)
	nextOffset := int64(buf.Len() + 8)
	buf.Write(int64LE(nextOffset))

	// Second block: compressed, last.
	buf.WriteByte(FlagCompressedZlib)
	buf.Write(int64LE(int64(zbuf.Len())))
	buf.Write(int64LE(int64(len(second))))
	buf.Write(zbuf.Bytes())

	a, err := Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(a.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(a.Chunks))
	}

	// The last chunk with a tag wins.
	ref, err := a.Hxv4()
	if err != nil {
		t.Fatalf("Hxv4() error = %v", err)
	}
	if ref.Offset != 2 || ref.Size != 2 || ref.Flag != 1 {
		t.Errorf("Hxv4 = %+v, want the second block's reference", ref)
	}
}

func TestOpenErrors(t *testing.T) {
	if ok, err := IsArchive(bytes.NewReader([]byte("PK\x03\x04"))); ok || err != nil {
		t.Errorf("IsArchive(short) = %v, %v", ok, err)
	}
	if ok, _ := IsArchive(bytes.NewReader([]byte("not an xp3 archive at all"))); ok {
		t.Error("IsArchive accepted a bad signature")
	}
	if _, err := Open(bytes.NewReader([]byte("not an xp3 archive at all"))); !errors.Is(err, ErrNotXP3) {
		t.Errorf("Open() error = %v, want ErrNotXP3", err)
	}

	// Chunk size running past the index.
	bad := chunk("File", []byte("abc"))
	binary.LittleEndian.PutUint64(bad[4:], 100)
	if _, err := Open(bytes.NewReader(buildArchive(nil, bad))); err == nil {
		t.Error("Open() accepted an overrunning chunk")
	}

	a, err := Open(bytes.NewReader(buildArchive(nil, chunk("File", nil))))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := a.Hxv4(); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("Hxv4() error = %v, want ErrChunkNotFound", err)
	}
}

func TestParseHxv4(t *testing.T) {
	h, err := ParseHxv4(hxv4Data(0x1122334455667788, 0x99AABBCC, 1))
	if err != nil {
		t.Fatalf("ParseHxv4() error = %v", err)
	}
	if h.Offset != 0x1122334455667788 || h.Size != 0x99AABBCC || h.Flag != 1 {
		t.Errorf("ParseHxv4() = %+v", h)
	}
	if _, err := ParseHxv4(make([]byte, 13)); err == nil {
		t.Error("ParseHxv4 accepted a short chunk")
	}

	short := Hxv4{Offset: 4, Size: 10}
	if _, err := short.ReadTable(bytes.NewReader(make([]byte, 8))); err == nil {
		t.Error("ReadTable accepted a truncated blob")
	}
}
