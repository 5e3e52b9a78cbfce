// cx3tool derives index keys, dumps encrypted XP3 file tables and evaluates
// the black-box transform of a title.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	cx3 "github.com/opd-ai/go-cx3"
	"github.com/opd-ai/go-cx3/config"
)

const usage = `usage: cx3tool [-config file] <command> [flags] [args]

commands:
  keyderive <game>                      print the derived index key and nonces
  tabledump [-g game] [-d hashdb] <file> dump the file table of an archive
  eval -g game <value>...               evaluate the black box
  disasm -g game [-slot n]              disassemble a black-box slot program
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("cx3tool", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	configPath := fs.String("config", "", "TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()
	cx3.SetLogger(log)

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("missing command")
	}

	app := &app{cfg: cfg, log: log}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "keyderive":
		return app.keyDerive(rest)
	case "tabledump":
		return app.tableDump(rest)
	case "eval":
		return app.eval(rest)
	case "disasm":
		return app.disasm(rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func (a *app) loadGame(name string) (*config.GameParams, error) {
	path, err := config.FindGame(a.cfg.Games.Dir, name)
	if err != nil {
		return nil, err
	}
	a.log.Debug("loading game params", zap.String("path", path))
	return config.LoadGame(path)
}

func (a *app) keyDerive(args []string) error {
	fs := flag.NewFlagSet("keyderive", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("keyderive: expected one game parameter file")
	}

	game, err := a.loadGame(fs.Arg(0))
	if err != nil {
		return err
	}
	kp, err := game.KeyParams()
	if err != nil {
		return err
	}
	keys, err := kp.Derive()
	if err != nil {
		return err
	}

	fmt.Printf("Key:\t\t%s\n", hex.EncodeToString(keys.Key[:]))
	fmt.Printf("Nonce A:\t%s\n", hex.EncodeToString(keys.NonceA[:]))
	fmt.Printf("Nonce B:\t%s\n", hex.EncodeToString(keys.NonceB[:]))
	return nil
}

func (a *app) blackBox(gameName string) (*cx3.BlackBox, error) {
	if gameName == "" {
		return nil, fmt.Errorf("missing -g game")
	}
	game, err := a.loadGame(gameName)
	if err != nil {
		return nil, err
	}
	bb, err := game.NewBlackBox()
	if err != nil {
		return nil, err
	}
	a.log.Info("black box ready",
		zap.String("variant", bb.Config().Variant.String()),
		zap.Int("max_cost", bb.Config().MaxCost))
	return bb, nil
}

func (a *app) eval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	gameName := fs.String("g", "", "game parameter file or name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	bb, err := a.blackBox(*gameName)
	if err != nil {
		return err
	}

	for _, arg := range fs.Args() {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return fmt.Errorf("eval: value %q: %w", arg, err)
		}
		fmt.Printf("%016x -> %016x\n", v, bb.Evaluate(v))
	}
	return nil
}

func (a *app) disasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	gameName := fs.String("g", "", "game parameter file or name")
	slotFlag := fs.Int("slot", -1, "slot to disassemble (-1 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	bb, err := a.blackBox(*gameName)
	if err != nil {
		return err
	}

	if *slotFlag >= 0 {
		return printSlot(bb, *slotFlag)
	}
	if err := bb.Prepare(context.Background()); err != nil {
		return err
	}
	for i := 0; i < cx3.SlotCount; i++ {
		if err := printSlot(bb, i); err != nil {
			return err
		}
	}
	return nil
}

func printSlot(bb *cx3.BlackBox, slot int) error {
	prog, err := bb.Program(slot)
	if err != nil {
		return err
	}
	fmt.Printf("; slot %d: %d instructions, cost %d, depth %d\n",
		slot, len(prog), prog.FramedCost(), prog.Depth())
	fmt.Print(prog)
	return nil
}
