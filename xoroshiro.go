package cx3

import (
	"fmt"
	"math/bits"
	"strings"
)

// Generator is a 64-bit output pseudo-random stream. The emitter uses the
// low 32 bits of each draw as its working random value.
type Generator interface {
	Next() uint64
}

// RNGVariant selects which stream generator feeds the emitter.
type RNGVariant int

const (
	// VariantPlusPlus selects Xoroshiro128++.
	VariantPlusPlus RNGVariant = iota

	// VariantStarStar selects Xoroshiro128**.
	VariantStarStar
)

// String returns the string representation of the variant.
func (v RNGVariant) String() string {
	switch v {
	case VariantPlusPlus:
		return "xoroshiro128++"
	case VariantStarStar:
		return "xoroshiro128**"
	default:
		return fmt.Sprintf("RNGVariant(%d)", int(v))
	}
}

// ParseRNGVariant accepts "++", "plusplus", "xoroshiro128++" and the
// matching "**" spellings, case-insensitively.
func ParseRNGVariant(s string) (RNGVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "++", "plusplus", "xoroshiro128++", "xoroshiro128plusplus":
		return VariantPlusPlus, nil
	case "**", "starstar", "xoroshiro128**", "xoroshiro128starstar":
		return VariantStarStar, nil
	default:
		return 0, fmt.Errorf("%w: unknown RNG variant %q", ErrConfiguration, s)
	}
}

// UnmarshalText lets config decoders fill an RNGVariant from a string.
func (v *RNGVariant) UnmarshalText(text []byte) error {
	parsed, err := ParseRNGVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText returns the short "++" or "**" spelling.
func (v RNGVariant) MarshalText() ([]byte, error) {
	switch v {
	case VariantPlusPlus:
		return []byte("++"), nil
	case VariantStarStar:
		return []byte("**"), nil
	default:
		return nil, fmt.Errorf("%w: unknown RNG variant %d", ErrConfiguration, int(v))
	}
}

// Xoroshiro128PlusPlus is the xoroshiro128++ generator.
type Xoroshiro128PlusPlus struct {
	s0, s1 uint64
}

// NewXoroshiro128PlusPlus creates a generator from two state words.
func NewXoroshiro128PlusPlus(s0, s1 uint64) *Xoroshiro128PlusPlus {
	return &Xoroshiro128PlusPlus{s0: s0, s1: s1}
}

// Next returns the next 64-bit output.
func (x *Xoroshiro128PlusPlus) Next() uint64 {
	s0, s1 := x.s0, x.s1
	result := bits.RotateLeft64(s0+s1, 17) + s0

	sx := s0 ^ s1
	x.s0 = bits.RotateLeft64(s0, 49) ^ sx ^ (sx << 21)
	x.s1 = bits.RotateLeft64(sx, 28)
	return result
}

// Xoroshiro128StarStar is the xoroshiro128** generator.
type Xoroshiro128StarStar struct {
	s0, s1 uint64
}

// NewXoroshiro128StarStar creates a generator from two state words.
func NewXoroshiro128StarStar(s0, s1 uint64) *Xoroshiro128StarStar {
	return &Xoroshiro128StarStar{s0: s0, s1: s1}
}

// Next returns the next 64-bit output.
func (x *Xoroshiro128StarStar) Next() uint64 {
	s0, s1 := x.s0, x.s1
	result := bits.RotateLeft64(s0*5, 7) * 9

	sx := s0 ^ s1
	x.s0 = bits.RotateLeft64(s0, 24) ^ sx ^ (sx << 16)
	x.s1 = bits.RotateLeft64(sx, 37)
	return result
}

// NewGenerator expands seed with SplitMix64 into two state words and
// returns the stream generator selected by variant.
func NewGenerator(variant RNGVariant, seed uint64) (Generator, error) {
	sm := NewSplitMix64(seed)
	s0 := sm.Next()
	s1 := sm.Next()

	switch variant {
	case VariantPlusPlus:
		return NewXoroshiro128PlusPlus(s0, s1), nil
	case VariantStarStar:
		return NewXoroshiro128StarStar(s0, s1), nil
	default:
		return nil, fmt.Errorf("%w: unknown RNG variant %d", ErrConfiguration, int(variant))
	}
}
