package cx3

import "errors"

var (
	// ErrConfiguration reports a malformed order table, seed block or cost
	// budget, including a budget too small for any generated program.
	ErrConfiguration = errors.New("cx3: invalid configuration")

	// ErrUnknownOpcode is raised (as a panic value) when an instruction
	// carries an opcode outside the closed instruction set.
	ErrUnknownOpcode = errors.New("cx3: unknown opcode")

	// ErrBufferRange is raised (as a panic value) when a buffer load reads
	// outside the seed block.
	ErrBufferRange = errors.New("cx3: seed block index out of range")
)
