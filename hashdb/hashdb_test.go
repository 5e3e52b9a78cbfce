package hashdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-cx3/table"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "hashes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestResolve(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	hash := []byte{0x01, 0x02, 0x03}
	require.NoError(t, db.Insert(ctx, Entry{
		Type: table.FileBlake2s,
		Hash: hash,
		Name: "システム/startup.tjs",
	}))

	name, ok, err := db.Resolve(table.FileBlake2s, hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "システム/startup.tjs", name)

	// Same hash, other type.
	_, ok, err = db.Resolve(table.PathSipHash48, hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = db.Resolve(table.FileBlake2s, []byte{0xFF})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertReplacesCachedName(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	hash := []byte("pathhash")

	// Cache a miss, then insert.
	_, ok, err := db.ResolveContext(ctx, table.PathSipHash48, hash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Insert(ctx, Entry{Type: table.PathSipHash48, Hash: hash, Name: "bgimage/"}))
	name, ok, err := db.ResolveContext(ctx, table.PathSipHash48, hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bgimage/", name)

	require.NoError(t, db.Insert(ctx, Entry{Type: table.PathSipHash48, Hash: hash, Name: "fgimage/"}))
	name, _, err = db.ResolveContext(ctx, table.PathSipHash48, hash)
	require.NoError(t, err)
	assert.Equal(t, "fgimage/", name)

	n, err := db.Count(ctx, table.PathSipHash48)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNullValue(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO known_hashes (type, hash, value) VALUES (?, ?, NULL)`,
		int(table.FileBlake2s), []byte{0x42})
	require.NoError(t, err)

	name, ok, err := db.Resolve(table.FileBlake2s, []byte{0x42})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, name)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Insert(ctx, Entry{Type: table.FileBlake2s, Hash: []byte{1}, Name: "a.ks"}))
	require.NoError(t, db.Close())

	db, err = OpenWithCacheSize(path, 8)
	require.NoError(t, err)
	defer db.Close()

	name, ok, err := db.Resolve(table.FileBlake2s, []byte{1})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a.ks", name)
}

func TestOpenWithInvalidCacheSize(t *testing.T) {
	_, err := OpenWithCacheSize(filepath.Join(t.TempDir(), "hashes.db"), 0)
	assert.Error(t, err)
}

func TestDumpWithDatabase(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Insert(context.Background(),
		Entry{Type: table.PathSipHash48, Hash: []byte{0xAB}, Name: "scenario/"}))

	var sb testWriter
	tbl := &table.ArchiveTable{Paths: []table.PathEntry{{Hash: []byte{0xAB}}}}
	require.NoError(t, tbl.Dump(&sb, table.DumpOptions{Resolver: db}))
	assert.Equal(t, "* Path scenario/ (ab)\n", string(sb))
}

type testWriter []byte

func (w *testWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
