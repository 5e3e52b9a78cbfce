// Package hashdb resolves table hashes to names using a SQLite database of
// known hashes.
package hashdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/encoding/unicode"
	_ "modernc.org/sqlite"

	"github.com/opd-ai/go-cx3/table"
)

// DefaultCacheSize is the number of lookups kept in memory.
const DefaultCacheSize = 4096

const schema = `CREATE TABLE IF NOT EXISTS known_hashes (type, hash, key, value, extra, UNIQUE(type, hash));`

// Entry is one known hash. Name is stored as UTF-16LE.
type Entry struct {
	Type  table.HashType
	Hash  []byte
	Key   []byte
	Name  string
	Extra []byte
}

type cacheKey struct {
	kind table.HashType
	hash string
}

type cached struct {
	name string
	ok   bool
}

// DB is a hash database. It is safe for concurrent use.
type DB struct {
	db    *sqlx.DB
	cache *lru.Cache[cacheKey, cached]
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	return OpenWithCacheSize(path, DefaultCacheSize)
}

// OpenWithCacheSize opens the database at path with an LRU of size
// entries in front of lookups.
func OpenWithCacheSize(path string, size int) (*DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("hashdb: open %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("hashdb: create schema: %w", err)
	}
	cache, err := lru.New[cacheKey, cached](size)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("hashdb: cache: %w", err)
	}
	return &DB{db: db, cache: cache}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Resolve implements table.Resolver.
func (d *DB) Resolve(kind table.HashType, hash []byte) (string, bool, error) {
	return d.ResolveContext(context.Background(), kind, hash)
}

// ResolveContext returns the name recorded for hash. A row with a NULL
// value resolves to the empty name.
func (d *DB) ResolveContext(ctx context.Context, kind table.HashType, hash []byte) (string, bool, error) {
	key := cacheKey{kind: kind, hash: string(hash)}
	if c, hit := d.cache.Get(key); hit {
		return c.name, c.ok, nil
	}

	var value []byte
	err := d.db.GetContext(ctx, &value,
		`SELECT value FROM known_hashes WHERE type = ? AND hash = ?`, int(kind), hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		d.cache.Add(key, cached{})
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("hashdb: lookup: %w", err)
	}

	name, err := decodeName(value)
	if err != nil {
		return "", false, err
	}
	d.cache.Add(key, cached{name: name, ok: true})
	return name, true, nil
}

// Insert adds or replaces an entry.
func (d *DB) Insert(ctx context.Context, e Entry) error {
	value, err := encodeName(e.Name)
	if err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO known_hashes (type, hash, key, value, extra) VALUES (?, ?, ?, ?, ?)`,
		int(e.Type), e.Hash, e.Key, value, e.Extra); err != nil {
		return fmt.Errorf("hashdb: insert: %w", err)
	}
	d.cache.Remove(cacheKey{kind: e.Type, hash: string(e.Hash)})
	return nil
}

// Count returns the number of known hashes of kind.
func (d *DB) Count(ctx context.Context, kind table.HashType) (int, error) {
	var n int
	if err := d.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM known_hashes WHERE type = ?`, int(kind)); err != nil {
		return 0, fmt.Errorf("hashdb: count: %w", err)
	}
	return n, nil
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeName decodes a UTF-16LE value, replacing invalid sequences with
// U+FFFD.
func decodeName(value []byte) (string, error) {
	if value == nil {
		return "", nil
	}
	out, err := utf16le.NewDecoder().Bytes(value)
	if err != nil {
		return "", fmt.Errorf("hashdb: decode name: %w", err)
	}
	return string(out), nil
}

func encodeName(name string) ([]byte, error) {
	out, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("hashdb: encode name: %w", err)
	}
	return out, nil
}
