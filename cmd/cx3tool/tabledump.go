package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	cx3 "github.com/opd-ai/go-cx3"
	"github.com/opd-ai/go-cx3/config"
	"github.com/opd-ai/go-cx3/hashdb"
	"github.com/opd-ai/go-cx3/table"
	"github.com/opd-ai/go-cx3/xp3"
)

func (a *app) tableDump(args []string) error {
	fs := flag.NewFlagSet("tabledump", flag.ContinueOnError)
	gameName := fs.String("g", "", "game parameter file or name (required for archives)")
	dbPath := fs.String("d", a.cfg.HashDB.Path, "hash database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("tabledump: expected one archive or table file")
	}

	var opts table.DumpOptions
	if *dbPath != "" {
		db, err := hashdb.OpenWithCacheSize(*dbPath, a.cfg.HashDB.CacheSize)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Resolver = db
	}

	data, game, err := a.readTable(fs.Arg(0), *gameName)
	if err != nil {
		return err
	}
	if game != nil && game.HasBlackBox() {
		bb, err := game.NewBlackBox()
		if err != nil {
			return err
		}
		opts.KeyTransform = bb.Evaluate
	}

	t, err := table.Parse(data)
	if err != nil {
		return err
	}
	a.log.Info("table decoded", zap.Int("paths", len(t.Paths)))
	return t.Dump(os.Stdout, opts)
}

// readTable returns the marshalled table of path: the decrypted Hxv4 table
// for an XP3 archive, or the file contents otherwise.
func (a *app) readTable(path, gameName string) ([]byte, *config.GameParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var game *config.GameParams
	if gameName != "" {
		if game, err = a.loadGame(gameName); err != nil {
			return nil, nil, err
		}
	}

	isArchive, err := xp3.IsArchive(f)
	if err != nil {
		return nil, nil, err
	}
	if !isArchive {
		data, err := io.ReadAll(f)
		return data, game, err
	}

	archive, err := xp3.Open(f)
	if err != nil {
		return nil, nil, err
	}
	ref, err := archive.Hxv4()
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("Hxv4",
		zap.Uint64("offset", ref.Offset),
		zap.Uint32("size", ref.Size),
		zap.Uint16("flag", ref.Flag))

	if game == nil {
		return nil, nil, fmt.Errorf("tabledump: -g game is required to decrypt %s", path)
	}
	kp, err := game.KeyParams()
	if err != nil {
		return nil, nil, err
	}
	keys, err := kp.Derive()
	if err != nil {
		return nil, nil, err
	}

	blob, err := ref.ReadTable(f)
	if err != nil {
		return nil, nil, err
	}
	data, err := cx3.DecryptIndex(keys, ref.Flag, blob)
	return data, game, err
}
