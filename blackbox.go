// Package cx3 reproduces the index-protection scheme of CX-encrypted XP3
// archives.
//
// At its core is a keyed 64-bit to 64-bit transform, the black box, built
// from procedurally generated programs for a small stack machine. Each of
// 128 slots lazily generates one program from a seed expanded by SplitMix64
// into a Xoroshiro128++ or Xoroshiro128** stream; the title-specific order
// table decides which instruction each random draw selects.
//
// Example usage:
//
//	order := cx3.OrderTable{0, 1, 2, 3, 4, 5, 6, 7, 0, 1, 2, 3, 4, 5, 0, 1, 2}
//	bb, err := cx3.New(order, cx3.VariantPlusPlus)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := bb.Evaluate(0x0123456789ABCDEF)
//
// The package also derives the index keys from per-title secrets
// (KeyParams.Derive) and decrypts the Hxv4 index (DecryptIndex).
package cx3

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config specifies the configuration for a BlackBox.
type Config struct {
	// Order is the per-title order table. It must pass Validate.
	Order OrderTable

	// Variant selects the stream generator.
	Variant RNGVariant

	// MaxCost is the cost budget of each generated program.
	// Zero selects DefaultMaxCost.
	MaxCost int

	// SeedBlock is the buffer read by LOAD_FROM_BUFFER instructions.
	// If set it must hold at least 1024 words; nil selects an all-zero block.
	SeedBlock []uint32
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Order.Validate(); err != nil {
		return err
	}

	if c.Variant != VariantPlusPlus && c.Variant != VariantStarStar {
		return fmt.Errorf("%w: invalid RNG variant: %v", ErrConfiguration, c.Variant)
	}

	if c.MaxCost != 0 && c.MaxCost < minMaxCost {
		return fmt.Errorf("%w: cost budget %d below minimum %d",
			ErrConfiguration, c.MaxCost, minMaxCost)
	}

	if c.SeedBlock != nil && len(c.SeedBlock) < minSeedBlockWords {
		return fmt.Errorf("%w: seed block has %d words, need at least %d",
			ErrConfiguration, len(c.SeedBlock), minSeedBlockWords)
	}

	return nil
}

// BlackBox is the slot-cached 64-bit transform. It is safe for concurrent
// use; each slot's program is generated at most once.
type BlackBox struct {
	config    Config
	emitter   *Emitter
	seedBlock []uint32
	slots     *slotCache
}

// New creates a BlackBox for an order table and RNG variant with the
// default cost budget and seed block.
func New(order OrderTable, variant RNGVariant) (*BlackBox, error) {
	return NewWithConfig(Config{Order: order, Variant: variant})
}

// NewWithConfig creates a BlackBox with the specified configuration.
func NewWithConfig(config Config) (*BlackBox, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	em, err := NewEmitter(config.Order, config.Variant, config.MaxCost)
	if err != nil {
		return nil, fmt.Errorf("cx3: emitter initialization: %w", err)
	}

	b := &BlackBox{
		config:    config,
		emitter:   em,
		seedBlock: zeroSeedBlock,
	}
	if config.SeedBlock != nil {
		b.seedBlock = append([]uint32(nil), config.SeedBlock...)
		b.config.SeedBlock = b.seedBlock
	}
	b.slots = newSlotCache(em.Emit)

	return b, nil
}

// Config returns the configuration the black box was created with.
func (b *BlackBox) Config() Config {
	return b.config
}

// Evaluate transforms value. The low 7 bits select a slot; the remaining
// bits, folded to 32, are run through the slot's program once as-is for the
// low output word and once complemented for the high output word.
func (b *BlackBox) Evaluate(value uint64) uint64 {
	index := int(value % SlotCount)

	prog, err := b.slots.get(index)
	if err != nil {
		// Validated budgets always fit a one-round program.
		panic(fmt.Errorf("cx3: slot %d generation: %w", index, err))
	}

	folded := uint32(value >> 7)
	lo := b.run(prog, folded)
	hi := b.run(prog, ^folded)

	traceEvaluate(value, index, lo, hi)
	return uint64(hi)<<32 | uint64(lo)
}

// run executes prog on a pooled interpreter.
func (b *BlackBox) run(prog Program, input uint32) uint32 {
	vm := poolGetVM(input, b.seedBlock)
	defer poolPutVM(vm)
	return vm.Execute(prog)
}

// Program returns a copy of the program of slot index, generating it if
// needed.
func (b *BlackBox) Program(index int) (Program, error) {
	if index < 0 || index >= SlotCount {
		return nil, fmt.Errorf("cx3: slot %d out of range [0, %d)", index, SlotCount)
	}
	prog, err := b.slots.get(index)
	if err != nil {
		return nil, err
	}
	return prog.Clone(), nil
}

// Generated returns how many slots have a program.
func (b *BlackBox) Generated() int {
	return b.slots.generated()
}

// Prepare generates every slot up front, using at most one worker per CPU.
// It returns the first generation error, or the context error if ctx is
// cancelled before all slots are done.
func (b *BlackBox) Prepare(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := 0; i < SlotCount; i++ {
		index := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := b.slots.get(index); err != nil {
				return fmt.Errorf("cx3: slot %d generation: %w", index, err)
			}
			return nil
		})
	}

	return g.Wait()
}
