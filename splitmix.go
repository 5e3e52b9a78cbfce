package cx3

// SplitMix64 is the fixed-algorithm seed expander. It is used to turn one
// 64-bit seed into the two state words of a stream generator.
type SplitMix64 struct {
	state uint64
}

const (
	splitmixIncrement = 0x9E3779B97F4A7C15
	splitmixMul1      = 0xBF58476D1CE4E5B9
	splitmixMul2      = 0x94D049BB133111EB
)

// NewSplitMix64 creates a SplitMix64 generator with the given initial state.
func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Next advances the state and returns the next mixed value.
func (s *SplitMix64) Next() uint64 {
	s.state += splitmixIncrement

	z := s.state
	z = (z ^ (z >> 30)) * splitmixMul1
	z = (z ^ (z >> 27)) * splitmixMul2
	return z ^ (z >> 31)
}
