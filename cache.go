package cx3

import (
	"sync"
	"sync/atomic"
)

// SlotCount is the number of program slots in a black box. A value selects
// its slot by its low 7 bits.
const SlotCount = 128

// slot holds one lazily generated program. Once generated, the program is
// never replaced.
type slot struct {
	once sync.Once
	done atomic.Bool
	prog Program
	err  error
}

// slotCache memoizes one generated program per slot index.
type slotCache struct {
	slots    [SlotCount]slot
	generate func(seed uint64) (Program, error)
}

// newSlotCache creates an empty cache that fills slots with generate.
func newSlotCache(generate func(seed uint64) (Program, error)) *slotCache {
	return &slotCache{generate: generate}
}

// get returns the program of slot index, generating it on first use.
// Concurrent first calls for the same slot generate exactly once.
func (c *slotCache) get(index int) (Program, error) {
	s := &c.slots[index]
	s.once.Do(func() {
		s.prog, s.err = c.generate(slotSeed(index))
		s.done.Store(true)
	})
	return s.prog, s.err
}

// generated returns how many slots have been filled.
func (c *slotCache) generated() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].done.Load() {
			n++
		}
	}
	return n
}

// slotSeed derives the emitter seed of a slot: the complement of the slot
// index in the high word and the index in the low word.
func slotSeed(index int) uint64 {
	return uint64(^uint32(index))<<32 | uint64(uint32(index))
}
