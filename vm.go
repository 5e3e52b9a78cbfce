package cx3

import "fmt"

// Interpreter executes programs over a 32-bit accumulator and a stack of
// context slots. An Interpreter is not safe for concurrent use.
type Interpreter struct {
	acc       uint32   // Accumulator
	input     uint32   // Input register, fixed for one execution
	ctx       []uint32 // Context stack; top is the active slot
	seedBlock []uint32 // Read-only buffer for LOAD_FROM_BUFFER*
}

// NewInterpreter creates an interpreter with the given input register and
// seed block. The seed block is only read; it may be nil when the program
// performs no buffer loads.
func NewInterpreter(input uint32, seedBlock []uint32) *Interpreter {
	vm := &Interpreter{
		ctx:       make([]uint32, 1, 8),
		seedBlock: seedBlock,
	}
	vm.Reset(input)
	return vm
}

// Reset clears the accumulator and context stack and loads a new input,
// keeping the seed block.
func (vm *Interpreter) Reset(input uint32) {
	vm.acc = 0
	vm.input = input
	vm.ctx = append(vm.ctx[:0], 0)
}

// Accumulator returns the current accumulator value.
func (vm *Interpreter) Accumulator() uint32 {
	return vm.acc
}

// Context returns the top context slot, or 0 once the stack has been
// emptied by the final RETURN.
func (vm *Interpreter) Context() uint32 {
	if len(vm.ctx) == 0 {
		return 0
	}
	return vm.ctx[len(vm.ctx)-1]
}

// Halted reports whether the context stack has been emptied.
func (vm *Interpreter) Halted() bool {
	return len(vm.ctx) == 0
}

// Execute runs prog from the start and returns the accumulator. Execution
// stops at the RETURN that empties the context stack; any instructions
// after it are never run.
func (vm *Interpreter) Execute(prog Program) uint32 {
	for i := range prog {
		if vm.Step(prog[i]) {
			break
		}
	}
	return vm.acc
}

// Step applies a single instruction and reports whether it halted the
// interpreter. It panics with ErrUnknownOpcode on an opcode outside the
// instruction set and with ErrBufferRange on an out-of-range buffer load.
func (vm *Interpreter) Step(instr Instruction) bool {
	if vm.Halted() {
		return true
	}
	top := len(vm.ctx) - 1

	switch instr.Op {
	case OpLoadArg:
		vm.acc = instr.Imm

	case OpLoadInput:
		vm.acc = vm.input

	case OpLoadFromBuffer:
		vm.acc = vm.load(instr.Imm)

	case OpLoadFromBufferIndirect:
		vm.acc = vm.load(vm.acc & instr.Imm)

	case OpAddArg:
		vm.acc += instr.Imm

	case OpSubtractArg:
		vm.acc -= instr.Imm

	case OpAddOne:
		vm.acc++

	case OpSubtractOne:
		vm.acc--

	case OpBitwiseNot:
		vm.acc = ^vm.acc

	case OpBitwiseXor:
		vm.acc ^= instr.Imm

	case OpNegate:
		vm.acc = -vm.acc

	case OpShuffle:
		vm.acc = (vm.acc&instr.Imm)>>1 | (vm.acc&^instr.Imm)<<1

	case OpSaveToContext:
		vm.ctx[top] = vm.acc

	case OpAddContext:
		vm.acc += vm.ctx[top]

	case OpSubtractContext:
		vm.acc -= vm.ctx[top]

	case OpSubtractFromContext:
		vm.acc = vm.ctx[top] - vm.acc

	case OpMultiplyContext:
		vm.acc *= vm.ctx[top]

	case OpShlContext:
		vm.acc <<= vm.ctx[top] & 0xF

	case OpShrContext:
		vm.acc >>= vm.ctx[top] & 0xF

	case OpSubroutine:
		vm.ctx = append(vm.ctx, 0)

	case OpReturn:
		vm.ctx = vm.ctx[:top]
		return len(vm.ctx) == 0

	default:
		panic(fmt.Errorf("%w: %d", ErrUnknownOpcode, uint8(instr.Op)))
	}

	return false
}

// load reads one word of the seed block.
func (vm *Interpreter) load(index uint32) uint32 {
	if uint64(index) >= uint64(len(vm.seedBlock)) {
		panic(fmt.Errorf("%w: index %d, block has %d words",
			ErrBufferRange, index, len(vm.seedBlock)))
	}
	return vm.seedBlock[index]
}

// Execute runs prog on a fresh interpreter and returns the accumulator.
func Execute(prog Program, input uint32, seedBlock []uint32) uint32 {
	return NewInterpreter(input, seedBlock).Execute(prog)
}
