package cx3

import "fmt"

// OrderTableSize is the number of entries in an order table.
const OrderTableSize = 17

// Windows of the order table, one per selection phase.
const (
	unaryBase   = 0  // entries 0-7, draw mod 8
	contextBase = 8  // entries 8-13, draw mod 6
	finalBase   = 14 // entries 14-16, draw mod 3
)

// OrderTable maps pseudo-random residues to instruction choices. It varies
// per title; the shape of generated programs does not.
type OrderTable [OrderTableSize]int32

// NewOrderTable converts a slice of exactly OrderTableSize integers, as
// decoded from a configuration file, into a validated OrderTable.
func NewOrderTable(values []int) (OrderTable, error) {
	var t OrderTable
	if len(values) != OrderTableSize {
		return t, fmt.Errorf("%w: order table has %d entries, want %d",
			ErrConfiguration, len(values), OrderTableSize)
	}
	for i, v := range values {
		t[i] = int32(v)
	}
	if err := t.Validate(); err != nil {
		return OrderTable{}, err
	}
	return t, nil
}

// Validate checks that each window is a permutation of its residues, so
// every draw maps to exactly one instruction.
func (t *OrderTable) Validate() error {
	windows := []struct {
		name string
		base int
		n    int
	}{
		{"unary", unaryBase, len(unaryChoices)},
		{"context", contextBase, len(contextChoices)},
		{"final", finalBase, len(finalChoices)},
	}

	for _, w := range windows {
		seen := make([]bool, w.n)
		for i := w.base; i < w.base+w.n; i++ {
			v := t[i]
			if v < 0 || int(v) >= w.n {
				return fmt.Errorf("%w: order[%d] = %d outside %s range 0..%d",
					ErrConfiguration, i, v, w.name, w.n-1)
			}
			if seen[v] {
				return fmt.Errorf("%w: order[%d] = %d repeats in %s window",
					ErrConfiguration, i, v, w.name)
			}
			seen[v] = true
		}
	}
	return nil
}

// lookup returns the position k within the window starting at base for
// which t[base+k] == residue.
func (t *OrderTable) lookup(base, n int, residue uint32) (int, error) {
	for k := 0; k < n; k++ {
		if uint32(t[base+k]) == residue {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: residue %d not present in order[%d:%d]",
		ErrConfiguration, residue, base, base+n)
}
