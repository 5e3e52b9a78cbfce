package cx3

import (
	"fmt"
	"strings"
)

const (
	// Framing costs charged around every generated program, in addition to
	// the per-instruction costs.
	prologueCost = 9
	epilogueCost = 5

	// DefaultMaxCost is the cost budget used when Config.MaxCost is zero.
	DefaultMaxCost = 128

	// minMaxCost is the smallest budget for which a one-round program always
	// fits: prologue + LOAD_FROM_BUFFER + RETURN + epilogue.
	minMaxCost = prologueCost + 11 + 1 + epilogueCost
)

// Program is a flat, read-only instruction sequence. Control structure is
// expressed only through nested SUBROUTINE/RETURN pairs.
type Program []Instruction

// Cost returns the sum of the instruction costs, excluding framing.
func (p Program) Cost() int {
	total := 0
	for _, instr := range p {
		total += instr.Op.Cost()
	}
	return total
}

// FramedCost returns Cost plus the prologue and epilogue charges, which is
// the quantity the emitter keeps within its budget.
func (p Program) FramedCost() int {
	return prologueCost + p.Cost() + epilogueCost
}

// Depth returns the maximum context stack depth reached while executing
// the program, counting the initial slot.
func (p Program) Depth() int {
	depth, maxDepth := 1, 1
	for _, instr := range p {
		switch instr.Op {
		case OpSubroutine:
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case OpReturn:
			depth--
			if depth == 0 {
				return maxDepth
			}
		}
	}
	return maxDepth
}

// Clone returns a copy of the program that shares no memory with p.
func (p Program) Clone() Program {
	return append(Program(nil), p...)
}

// String returns a disassembly, one instruction per line, indented by
// subroutine nesting.
func (p Program) String() string {
	var sb strings.Builder
	depth := 0
	for i, instr := range p {
		if instr.Op == OpReturn && depth > 0 {
			depth--
		}
		fmt.Fprintf(&sb, "%04d  %s%s\n", i, strings.Repeat("  ", depth), instr)
		if instr.Op == OpSubroutine {
			depth++
		}
	}
	return sb.String()
}
