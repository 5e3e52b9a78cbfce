package cx3

import "sync"

// zeroSeedBlock is the shared read-only seed block used when a black box is
// configured without one. It is large enough for every index the emitter
// can produce.
var zeroSeedBlock = make([]uint32, minSeedBlockWords)

// Interpreter pool for black-box evaluation.
var vmPool = sync.Pool{
	New: func() interface{} {
		return &Interpreter{
			ctx: make([]uint32, 1, maxRounds+2),
		}
	},
}

// poolGetVM retrieves an interpreter bound to seedBlock and reset to input.
func poolGetVM(input uint32, seedBlock []uint32) *Interpreter {
	vm := vmPool.Get().(*Interpreter)
	vm.seedBlock = seedBlock
	vm.Reset(input)
	return vm
}

// poolPutVM returns an interpreter to the pool for reuse.
func poolPutVM(vm *Interpreter) {
	if vm != nil {
		vm.seedBlock = nil
		vmPool.Put(vm)
	}
}
