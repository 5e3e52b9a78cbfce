// Package table decodes the marshalled file table stored in the encrypted
// Hxv4 index: a flat list of path hashes, each followed by the files of
// that path.
package table

import (
	"encoding/hex"
	"fmt"
	"io"
)

// HashType identifies the hash function a table hash was computed with.
type HashType int

const (
	// PathSipHash48 hashes directory paths.
	PathSipHash48 HashType = 1

	// FileBlake2s hashes file names.
	FileBlake2s HashType = 2
)

// String returns the name of the hash type.
func (t HashType) String() string {
	switch t {
	case PathSipHash48:
		return "path-siphash48"
	case FileBlake2s:
		return "file-blake2s"
	default:
		return fmt.Sprintf("HashType(%d)", int(t))
	}
}

// Resolver looks up the original name of a hash. ok is false when the hash
// is unknown.
type Resolver interface {
	Resolve(kind HashType, hash []byte) (name string, ok bool, err error)
}

// FileEntry is one file of a path.
type FileEntry struct {
	Hash []byte
	ID   uint64
	Key  uint64
}

// PathEntry is one directory and its files.
type PathEntry struct {
	Hash  []byte
	Files []FileEntry
}

// ArchiveTable is the decoded file table.
type ArchiveTable struct {
	Paths []PathEntry
}

// Parse decodes a marshalled file table.
func Parse(data []byte) (*ArchiveTable, error) {
	root, err := Decode(data)
	if err != nil {
		return nil, err
	}
	list, ok := root.([]any)
	if !ok {
		return nil, fmt.Errorf("table: expected marshalled table type to be a list, got %T", root)
	}
	if len(list)%2 != 0 {
		return nil, fmt.Errorf("table: path list has odd length %d", len(list))
	}

	t := &ArchiveTable{Paths: make([]PathEntry, 0, len(list)/2)}
	for i := 0; i < len(list); i += 2 {
		p, err := parsePath(list[i], list[i+1])
		if err != nil {
			return nil, fmt.Errorf("table: path %d: %w", i/2, err)
		}
		t.Paths = append(t.Paths, p)
	}
	return t, nil
}

func parsePath(hashValue, childrenValue any) (PathEntry, error) {
	hash, ok := hashValue.([]byte)
	if !ok {
		return PathEntry{}, fmt.Errorf("hash is %T, want bytes", hashValue)
	}
	children, ok := childrenValue.([]any)
	if !ok {
		return PathEntry{}, fmt.Errorf("children are %T, want list", childrenValue)
	}
	if len(children)%2 != 0 {
		return PathEntry{}, fmt.Errorf("file list has odd length %d", len(children))
	}

	p := PathEntry{Hash: hash, Files: make([]FileEntry, 0, len(children)/2)}
	for i := 0; i < len(children); i += 2 {
		f, err := parseFile(children[i], children[i+1])
		if err != nil {
			return PathEntry{}, fmt.Errorf("file %d: %w", i/2, err)
		}
		p.Files = append(p.Files, f)
	}
	return p, nil
}

func parseFile(hashValue, infoValue any) (FileEntry, error) {
	hash, ok := hashValue.([]byte)
	if !ok {
		return FileEntry{}, fmt.Errorf("hash is %T, want bytes", hashValue)
	}
	info, ok := infoValue.([]any)
	if !ok || len(info) < 2 {
		return FileEntry{}, fmt.Errorf("info is %T, want [id, key]", infoValue)
	}
	id, ok := info[0].(uint64)
	if !ok {
		return FileEntry{}, fmt.Errorf("id is %T, want uint64", info[0])
	}
	key, ok := info[1].(uint64)
	if !ok {
		return FileEntry{}, fmt.Errorf("key is %T, want uint64", info[1])
	}
	return FileEntry{Hash: hash, ID: id, Key: key}, nil
}

// Marshal encodes the table in the layout Parse reads.
func (t *ArchiveTable) Marshal() ([]byte, error) {
	root := make([]any, 0, 2*len(t.Paths))
	for _, p := range t.Paths {
		children := make([]any, 0, 2*len(p.Files))
		for _, f := range p.Files {
			children = append(children, f.Hash, []any{f.ID, f.Key})
		}
		root = append(root, p.Hash, children)
	}
	return AppendValue(nil, root)
}

// DumpOptions controls Dump output.
type DumpOptions struct {
	// Resolver, if set, resolves hashes to names.
	Resolver Resolver

	// KeyTransform, if set, is applied to each file key and printed next
	// to it.
	KeyTransform func(uint64) uint64
}

// Dump writes a human-readable listing of the table.
func (t *ArchiveTable) Dump(w io.Writer, opts DumpOptions) error {
	for _, p := range t.Paths {
		name, err := formatHash(opts.Resolver, PathSipHash48, p.Hash)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "* Path %s\n", name); err != nil {
			return err
		}

		for _, f := range p.Files {
			name, err := formatHash(opts.Resolver, FileBlake2s, f.Hash)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "\t* File %d\n\t\t- Name hash: %s\n\t\t- Key: %016x\n",
				f.ID, name, f.Key); err != nil {
				return err
			}
			if opts.KeyTransform != nil {
				if _, err := fmt.Fprintf(w, "\t\t- Transformed key: %016x\n",
					opts.KeyTransform(f.Key)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func formatHash(r Resolver, kind HashType, hash []byte) (string, error) {
	h := hex.EncodeToString(hash)
	if r == nil {
		return h, nil
	}
	name, ok, err := r.Resolve(kind, hash)
	if err != nil {
		return "", fmt.Errorf("table: resolve %s %s: %w", kind, h, err)
	}
	if !ok {
		return h, nil
	}
	return fmt.Sprintf("%s (%s)", name, h), nil
}
