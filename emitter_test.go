package cx3

import (
	"errors"
	"testing"
)

var (
	identityOrder = OrderTable{0, 1, 2, 3, 4, 5, 6, 7, 0, 1, 2, 3, 4, 5, 0, 1, 2}
	reversedOrder = OrderTable{7, 6, 5, 4, 3, 2, 1, 0, 5, 4, 3, 2, 1, 0, 2, 1, 0}
)

// TestOrderTableValidate verifies the per-window permutation check.
func TestOrderTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*OrderTable)
		wantErr bool
	}{
		{"identity", func(*OrderTable) {}, false},
		{"reversed", func(o *OrderTable) { *o = reversedOrder }, false},
		{"unary repeat", func(o *OrderTable) { o[1] = 0 }, true},
		{"unary out of range", func(o *OrderTable) { o[7] = 8 }, true},
		{"context out of range", func(o *OrderTable) { o[8] = 6 }, true},
		{"final repeat", func(o *OrderTable) { o[16] = 1 }, true},
		{"negative", func(o *OrderTable) { o[14] = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := identityOrder
			tt.modify(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

// TestNewOrderTable verifies conversion from decoded configuration.
func TestNewOrderTable(t *testing.T) {
	values := []int{3, 1, 2, 0, 4, 5, 7, 6, 1, 0, 2, 3, 5, 4, 1, 2, 0}
	o, err := NewOrderTable(values)
	if err != nil {
		t.Fatalf("NewOrderTable() error = %v", err)
	}
	for i, v := range values {
		if int(o[i]) != v {
			t.Errorf("order[%d] = %d, want %d", i, o[i], v)
		}
	}

	if _, err := NewOrderTable(values[:16]); !errors.Is(err, ErrConfiguration) {
		t.Errorf("short table error = %v, want ErrConfiguration", err)
	}
	bad := append([]int(nil), values...)
	bad[0] = 1
	if _, err := NewOrderTable(bad); !errors.Is(err, ErrConfiguration) {
		t.Errorf("invalid table error = %v, want ErrConfiguration", err)
	}
}

// TestOrderTableLookup verifies a residue selects the position holding it.
func TestOrderTableLookup(t *testing.T) {
	o := reversedOrder
	for r := uint32(0); r < 8; r++ {
		k, err := o.lookup(unaryBase, 8, r)
		if err != nil {
			t.Fatalf("lookup(%d) error = %v", r, err)
		}
		if want := 7 - int(r); k != want {
			t.Errorf("unary lookup(%d) = %d, want %d", r, k, want)
		}
	}
	for r := uint32(0); r < 3; r++ {
		k, _ := o.lookup(finalBase, 3, r)
		if want := 2 - int(r); k != want {
			t.Errorf("final lookup(%d) = %d, want %d", r, k, want)
		}
	}
	if _, err := o.lookup(finalBase, 3, 3); err == nil {
		t.Error("lookup of a missing residue should fail")
	}
}

// checkProgram verifies the structural invariants of a generated program.
func checkProgram(t *testing.T, prog Program, maxCost int) {
	t.Helper()

	if len(prog) == 0 {
		t.Fatal("empty program")
	}
	if got := prog.FramedCost(); got > maxCost {
		t.Errorf("FramedCost() = %d exceeds budget %d", got, maxCost)
	}

	depth := 1
	for i, instr := range prog {
		if !instr.Op.Valid() {
			t.Fatalf("instruction %d has invalid opcode %d", i, instr.Op)
		}
		switch instr.Op {
		case OpSubroutine:
			depth++
		case OpReturn:
			depth--
			if depth == 0 && i != len(prog)-1 {
				t.Fatalf("program halts at %d of %d instructions", i, len(prog))
			}
		case OpLoadFromBuffer:
			if instr.Imm > bufferIndexMask {
				t.Errorf("buffer index %#x exceeds mask", instr.Imm)
			}
		case OpLoadFromBufferIndirect:
			if instr.Imm != bufferIndexMask {
				t.Errorf("indirect mask = %#x, want %#x", instr.Imm, bufferIndexMask)
			}
		case OpShuffle:
			if instr.Imm != shuffleMask {
				t.Errorf("shuffle mask = %#x, want %#x", instr.Imm, uint32(shuffleMask))
			}
		}
	}
	if depth != 0 {
		t.Errorf("program ends at depth %d, want 0", depth)
	}
	if prog.Depth() > maxRounds {
		t.Errorf("Depth() = %d exceeds %d", prog.Depth(), maxRounds)
	}
}

// TestEmitterBudget generates many programs and checks every one fits the
// budget and is well formed.
func TestEmitterBudget(t *testing.T) {
	budgets := []int{minMaxCost, 48, DefaultMaxCost, 512}
	orders := []OrderTable{identityOrder, reversedOrder}

	for _, variant := range []RNGVariant{VariantPlusPlus, VariantStarStar} {
		for _, order := range orders {
			for _, budget := range budgets {
				em, err := NewEmitter(order, variant, budget)
				if err != nil {
					t.Fatalf("NewEmitter() error = %v", err)
				}
				for i := 0; i < 200; i++ {
					seed := slotSeed(i%SlotCount) ^ uint64(i)*0x9E3779B97F4A7C15
					prog, err := em.Emit(seed)
					if err != nil {
						t.Fatalf("Emit(%#x) budget %d error = %v", seed, budget, err)
					}
					checkProgram(t, prog, budget)

					// Generated programs must run on the default seed block.
					Execute(prog, uint32(i), zeroSeedBlock)
				}
			}
		}
	}
}

// TestEmitterDeterministic verifies equal seeds give equal programs.
func TestEmitterDeterministic(t *testing.T) {
	a, _ := NewEmitter(identityOrder, VariantStarStar, 0)
	b, _ := NewEmitter(identityOrder, VariantStarStar, 0)

	if a.MaxCost() != DefaultMaxCost {
		t.Errorf("MaxCost() = %d, want %d", a.MaxCost(), DefaultMaxCost)
	}

	for seed := uint64(0); seed < 64; seed++ {
		pa, err := a.Emit(seed)
		if err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
		pb, _ := b.Emit(seed)
		if pa.String() != pb.String() {
			t.Fatalf("seed %d: programs differ\n%s\n%s", seed, pa, pb)
		}
	}
}

// TestEmitterOrderMatters verifies the order table changes generated
// programs.
func TestEmitterOrderMatters(t *testing.T) {
	a, _ := NewEmitter(identityOrder, VariantPlusPlus, 0)
	b, _ := NewEmitter(reversedOrder, VariantPlusPlus, 0)

	differ := 0
	for seed := uint64(0); seed < 32; seed++ {
		pa, _ := a.Emit(seed)
		pb, _ := b.Emit(seed)
		if pa.String() != pb.String() {
			differ++
		}
	}
	if differ == 0 {
		t.Error("order table had no effect on 32 programs")
	}
}

// TestEmitterImpossibleBudget verifies a budget below the smallest program
// fails with ErrConfiguration.
func TestEmitterImpossibleBudget(t *testing.T) {
	em, err := NewEmitter(identityOrder, VariantPlusPlus, prologueCost+epilogueCost)
	if err != nil {
		t.Fatalf("NewEmitter() error = %v", err)
	}
	if _, err := em.Emit(1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Emit() error = %v, want ErrConfiguration", err)
	}
}

// TestNewEmitterInvalid verifies argument validation.
func TestNewEmitterInvalid(t *testing.T) {
	bad := identityOrder
	bad[3] = 0
	if _, err := NewEmitter(bad, VariantPlusPlus, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("bad order error = %v", err)
	}
	if _, err := NewEmitter(identityOrder, RNGVariant(5), 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("bad variant error = %v", err)
	}
	if _, err := NewEmitter(identityOrder, VariantPlusPlus, -1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("negative budget error = %v", err)
	}
}

// TestHaltIgnoresTrailingInstructions verifies instructions appended after
// the final RETURN of a generated program never run.
func TestHaltIgnoresTrailingInstructions(t *testing.T) {
	em, _ := NewEmitter(reversedOrder, VariantPlusPlus, 0)
	trailer := Program{
		{OpLoadArg, 0x55555555},
		{OpReturn, 0},
		{Op: opCount}, // would panic if executed
	}

	for seed := uint64(0); seed < 64; seed++ {
		prog, err := em.Emit(seed)
		if err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
		extended := append(prog.Clone(), trailer...)
		for _, input := range []uint32{0, 42, 0xFFFFFFFF} {
			want := Execute(prog, input, zeroSeedBlock)
			if got := Execute(extended, input, zeroSeedBlock); got != want {
				t.Fatalf("seed %d input %d: %#x with trailer, %#x without", seed, input, got, want)
			}
		}
	}
}
