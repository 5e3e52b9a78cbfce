package cx3

import "fmt"

// Opcode identifies one operation of the closed instruction set.
type Opcode uint8

const (
	OpLoadArg                Opcode = iota // acc = imm
	OpLoadInput                            // acc = input
	OpLoadFromBuffer                       // acc = seed[imm]
	OpLoadFromBufferIndirect               // acc = seed[acc & imm]
	OpAddArg                               // acc += imm
	OpSubtractArg                          // acc -= imm
	OpAddOne                               // acc++
	OpSubtractOne                          // acc--
	OpBitwiseNot                           // acc = ^acc
	OpBitwiseXor                           // acc ^= imm
	OpNegate                               // acc = -acc
	OpShuffle                              // swap bit pairs selected by imm
	OpSaveToContext                        // ctx = acc
	OpAddContext                           // acc += ctx
	OpSubtractContext                      // acc -= ctx
	OpSubtractFromContext                  // acc = ctx - acc
	OpMultiplyContext                      // acc *= ctx
	OpShlContext                           // acc <<= ctx & 0xF
	OpShrContext                           // acc >>= ctx & 0xF
	OpSubroutine                           // push ctx 0
	OpReturn                               // pop ctx, halt when empty

	opCount = 21
)

// opInfo describes the static properties of an opcode.
type opInfo struct {
	name   string
	cost   int  // Emission cost charged against the budget
	hasImm bool // Whether the immediate is meaningful
}

var opInfos = [opCount]opInfo{
	OpLoadArg:                {"LOAD_ARG", 5, true},
	OpLoadInput:              {"LOAD_INPUT", 2, false},
	OpLoadFromBuffer:         {"LOAD_FROM_BUFFER", 11, true},
	OpLoadFromBufferIndirect: {"LOAD_FROM_BUFFER_INDIRECT", 13, true},
	OpAddArg:                 {"ADD_ARG", 5, true},
	OpSubtractArg:            {"SUBTRACT_ARG", 5, true},
	OpAddOne:                 {"ADD_ONE", 1, false},
	OpSubtractOne:            {"SUBTRACT_ONE", 1, false},
	OpBitwiseNot:             {"BITWISE_NOT", 2, false},
	OpBitwiseXor:             {"BITWISE_XOR", 5, true},
	OpNegate:                 {"NEGATE", 2, false},
	OpShuffle:                {"SHUFFLE", 21, true},
	OpSaveToContext:          {"SAVE_TO_CONTEXT", 2, false},
	OpAddContext:             {"ADD_CONTEXT", 2, false},
	OpSubtractContext:        {"SUBTRACT_CONTEXT", 2, false},
	OpSubtractFromContext:    {"SUBTRACT_FROM_CONTEXT", 4, false},
	OpMultiplyContext:        {"MULTIPLY_CONTEXT", 3, false},
	OpShlContext:             {"SHL_CONTEXT", 9, false},
	OpShrContext:             {"SHR_CONTEXT", 9, false},
	OpSubroutine:             {"SUBROUTINE", 1, false},
	OpReturn:                 {"RETURN", 1, false},
}

// Valid reports whether op belongs to the instruction set.
func (op Opcode) Valid() bool {
	return op < opCount
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
	return opInfos[op].name
}

// Cost returns the budget weight of the opcode. It panics on an opcode
// outside the instruction set.
func (op Opcode) Cost() int {
	if !op.Valid() {
		panic(fmt.Errorf("%w: %d", ErrUnknownOpcode, uint8(op)))
	}
	return opInfos[op].cost
}

// Instruction is one opcode with its 32-bit immediate. Opcodes that take
// no argument ignore Imm.
type Instruction struct {
	Op  Opcode
	Imm uint32
}

// String formats the instruction as assembly.
func (i Instruction) String() string {
	if i.Op.Valid() && opInfos[i.Op].hasImm {
		return fmt.Sprintf("%s 0x%08X", i.Op, i.Imm)
	}
	return i.Op.String()
}

// Emission selection groups. Each group is indexed through a window of the
// order table: a draw residue r picks choice k where order[base+k] == r.
var (
	unaryChoices = [8]Opcode{
		OpBitwiseNot,
		OpNegate,
		OpAddOne,
		OpSubtractOne,
		OpShuffle,
		OpBitwiseXor,
		OpAddArg, // ADD_ARG or SUBTRACT_ARG, decided by a second draw
		OpLoadFromBufferIndirect,
	}

	contextChoices = [6]Opcode{
		OpAddContext,
		OpSubtractContext,
		OpSubtractFromContext,
		OpMultiplyContext,
		OpShlContext,
		OpShrContext,
	}

	finalChoices = [3]Opcode{
		OpLoadArg,
		OpLoadInput,
		OpLoadFromBuffer,
	}
)

const (
	shuffleMask       = 0xAAAAAAAA
	bufferIndexMask   = 0x3FF
	minSeedBlockWords = bufferIndexMask + 1
)
