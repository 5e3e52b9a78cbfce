package cx3

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// TestVector is one known-answer case for a generator. Seed feeds
// SplitMix64 directly or, for the stream generators, through NewGenerator.
// State, when present, bypasses seed expansion and loads the two state
// words as given.
type TestVector struct {
	Name      string   `json:"name"`
	Generator string   `json:"generator"`
	Seed      string   `json:"seed,omitempty"`
	State     []string `json:"state,omitempty"`
	Outputs   []string `json:"outputs"`
}

// TestVectorSuite contains all test vectors with metadata about their source.
type TestVectorSuite struct {
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Source      string       `json:"source,omitempty"`
	Vectors     []TestVector `json:"vectors"`
}

// LoadTestVectors loads test vectors from a JSON file.
func LoadTestVectors(path string) (*TestVectorSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test vectors: %w", err)
	}

	var suite TestVectorSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse test vectors: %w", err)
	}

	return &suite, nil
}

// NewGenerator builds the generator the vector describes.
func (tv *TestVector) NewGenerator() (Generator, error) {
	if tv.Generator == "splitmix64" {
		seed, err := parseHex64(tv.Seed)
		if err != nil {
			return nil, fmt.Errorf("%s: seed: %w", tv.Name, err)
		}
		return NewSplitMix64(seed), nil
	}

	variant, err := ParseRNGVariant(tv.Generator)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tv.Name, err)
	}

	if len(tv.State) == 0 {
		seed, err := parseHex64(tv.Seed)
		if err != nil {
			return nil, fmt.Errorf("%s: seed: %w", tv.Name, err)
		}
		return NewGenerator(variant, seed)
	}

	if len(tv.State) != 2 {
		return nil, fmt.Errorf("%s: state must have 2 words, got %d", tv.Name, len(tv.State))
	}
	s0, err := parseHex64(tv.State[0])
	if err != nil {
		return nil, fmt.Errorf("%s: state: %w", tv.Name, err)
	}
	s1, err := parseHex64(tv.State[1])
	if err != nil {
		return nil, fmt.Errorf("%s: state: %w", tv.Name, err)
	}
	if variant == VariantStarStar {
		return NewXoroshiro128StarStar(s0, s1), nil
	}
	return NewXoroshiro128PlusPlus(s0, s1), nil
}

// Expected returns the decoded expected outputs.
func (tv *TestVector) Expected() ([]uint64, error) {
	out := make([]uint64, len(tv.Outputs))
	for i, s := range tv.Outputs {
		v, err := parseHex64(s)
		if err != nil {
			return nil, fmt.Errorf("%s: output %d: %w", tv.Name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseHex64(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseUint(s, 16, 64)
}
