package cx3

// This file contains the randomized program generator. A program is grown
// from a three-level grammar (subroutine, inner, final) whose choices are
// drawn from a seeded stream generator and routed through the order table.
// Every append is charged against a cost budget; when a program outgrows the
// budget, generation restarts with one less level of nesting.

import (
	"errors"
	"fmt"
)

// maxRounds is the nesting depth of the first generation attempt.
const maxRounds = 5

// errOverBudget abandons one generation attempt.
var errOverBudget = errors.New("cx3: program exceeds cost budget")

// Emitter builds programs for a fixed order table, RNG variant and cost
// budget. An Emitter holds no per-program state and may be shared.
type Emitter struct {
	order   OrderTable
	variant RNGVariant
	maxCost int
}

// NewEmitter validates the order table and budget and returns an Emitter.
// A maxCost of zero selects DefaultMaxCost.
func NewEmitter(order OrderTable, variant RNGVariant, maxCost int) (*Emitter, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if variant != VariantPlusPlus && variant != VariantStarStar {
		return nil, fmt.Errorf("%w: unknown RNG variant %d", ErrConfiguration, int(variant))
	}
	if maxCost == 0 {
		maxCost = DefaultMaxCost
	}
	if maxCost < 0 {
		return nil, fmt.Errorf("%w: negative cost budget %d", ErrConfiguration, maxCost)
	}
	return &Emitter{order: order, variant: variant, maxCost: maxCost}, nil
}

// MaxCost returns the cost budget of generated programs.
func (e *Emitter) MaxCost() int {
	return e.maxCost
}

// Emit generates the program for seed. Attempts are made with 5, 4, ... 1
// rounds of nesting, all drawing from one random stream; the first program
// whose framed cost fits the budget is returned. If none fits, the error
// wraps ErrConfiguration.
func (e *Emitter) Emit(seed uint64) (Program, error) {
	gen, err := NewGenerator(e.variant, seed)
	if err != nil {
		return nil, err
	}

	b := &programBuilder{
		order:   &e.order,
		gen:     gen,
		maxCost: e.maxCost,
	}

	for rounds := maxRounds; rounds > 0; rounds-- {
		prog, err := b.build(rounds)
		if err == nil {
			traceProgram(seed, rounds, prog)
			return prog, nil
		}
		if !errors.Is(err, errOverBudget) {
			return nil, err
		}
		traceRetry(seed, rounds, b.cost)
	}

	return nil, fmt.Errorf("%w: no program for seed %#016x fits cost budget %d",
		ErrConfiguration, seed, e.maxCost)
}

// programBuilder holds the state of one Emit call.
type programBuilder struct {
	order   *OrderTable
	gen     Generator
	maxCost int

	prog Program
	cost int
}

// build makes one attempt at the given nesting depth.
func (b *programBuilder) build(rounds int) (Program, error) {
	b.prog = make(Program, 0, 64)
	b.cost = 0

	if err := b.charge(prologueCost); err != nil {
		return nil, err
	}
	if err := b.emitSubroutine(rounds); err != nil {
		return nil, err
	}
	if err := b.emit(OpReturn, 0); err != nil {
		return nil, err
	}
	if err := b.charge(epilogueCost); err != nil {
		return nil, err
	}
	return b.prog, nil
}

// draw returns the low 32 bits of the next stream value.
func (b *programBuilder) draw() uint32 {
	return uint32(b.gen.Next())
}

// charge adds cost to the running total and fails once it exceeds the
// budget.
func (b *programBuilder) charge(cost int) error {
	b.cost += cost
	if b.cost > b.maxCost {
		return errOverBudget
	}
	return nil
}

// emit appends one instruction and charges its cost.
func (b *programBuilder) emit(op Opcode, imm uint32) error {
	b.prog = append(b.prog, Instruction{Op: op, Imm: imm})
	return b.charge(op.Cost())
}

// choose draws a value and maps its residue modulo n through the order
// table window starting at base.
func (b *programBuilder) choose(base, n int) (int, error) {
	return b.order.lookup(base, n, b.draw()%uint32(n))
}

// emitBranch coin-flips between an inner and a subroutine expansion.
func (b *programBuilder) emitBranch(step int) error {
	if b.draw()&1 == 0 {
		return b.emitInner(step)
	}
	return b.emitSubroutine(step)
}

// emitFinal emits a leaf load.
func (b *programBuilder) emitFinal() error {
	k, err := b.choose(finalBase, len(finalChoices))
	if err != nil {
		return err
	}

	switch op := finalChoices[k]; op {
	case OpLoadArg:
		return b.emit(op, b.draw())
	case OpLoadFromBuffer:
		return b.emit(op, b.draw()&bufferIndexMask)
	default:
		return b.emit(op, 0)
	}
}

// emitInner emits an expansion followed by one unary operation.
func (b *programBuilder) emitInner(step int) error {
	if step == 1 {
		return b.emitFinal()
	}
	if err := b.emitBranch(step - 1); err != nil {
		return err
	}

	k, err := b.choose(unaryBase, len(unaryChoices))
	if err != nil {
		return err
	}

	switch op := unaryChoices[k]; op {
	case OpShuffle:
		return b.emit(op, shuffleMask)
	case OpBitwiseXor:
		return b.emit(op, b.draw())
	case OpAddArg:
		if b.draw()&1 != 0 {
			op = OpSubtractArg
		}
		return b.emit(op, b.draw())
	case OpLoadFromBufferIndirect:
		return b.emit(op, bufferIndexMask)
	default:
		return b.emit(op, 0)
	}
}

// emitSubroutine emits a scoped pair of expansions combined through the
// context slot.
func (b *programBuilder) emitSubroutine(step int) error {
	if step == 1 {
		return b.emitFinal()
	}
	if err := b.emit(OpSubroutine, 0); err != nil {
		return err
	}
	if err := b.emitBranch(step - 1); err != nil {
		return err
	}
	if err := b.emit(OpSaveToContext, 0); err != nil {
		return err
	}
	if err := b.emitBranch(step - 1); err != nil {
		return err
	}

	k, err := b.choose(contextBase, len(contextChoices))
	if err != nil {
		return err
	}
	if err := b.emit(contextChoices[k], 0); err != nil {
		return err
	}
	return b.emit(OpReturn, 0)
}
