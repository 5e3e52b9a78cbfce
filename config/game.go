package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	cx3 "github.com/opd-ai/go-cx3"
)

// GameParams are the per-title secrets and black-box parameters. Binary
// fields are hex strings.
type GameParams struct {
	BootstrapString  string `toml:"bootstrap_string" yaml:"bootstrap_string" json:"bootstrap_string"`
	WarningString    string `toml:"warning_string" yaml:"warning_string" json:"warning_string"`
	ParamsBlob       string `toml:"params_blob" yaml:"params_blob" json:"params_blob"`
	ArchiveUniqueKey string `toml:"archive_unique_key" yaml:"archive_unique_key" json:"archive_unique_key"`
	UpperKeySeed     string `toml:"upper_key_seed" yaml:"upper_key_seed" json:"upper_key_seed"`

	Order      []int  `toml:"order" yaml:"order" json:"order"`
	RNGVariant string `toml:"rng_variant" yaml:"rng_variant" json:"rng_variant"`
	MaxCost    int    `toml:"max_cost" yaml:"max_cost" json:"max_cost"`
}

// LoadGame reads game parameters; the format follows the file extension
// (.toml, .yaml/.yml or .json).
func LoadGame(path string) (*GameParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game params %s: %w", path, err)
	}

	var p GameParams
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &p)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".json":
		err = json.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("game params %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse game params %s: %w", path, err)
	}
	return &p, nil
}

// FindGame resolves a title name to a parameter file in dir. A name that is
// already a path to an existing file is returned unchanged.
func FindGame(dir, name string) (string, error) {
	if st, err := os.Stat(name); err == nil && !st.IsDir() {
		return name, nil
	}
	for _, ext := range []string{".toml", ".yaml", ".yml", ".json"} {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no game params for %q in %s", name, dir)
}

// KeyParams decodes the key-derivation secrets.
func (p *GameParams) KeyParams() (*cx3.KeyParams, error) {
	blob, err := hex.DecodeString(p.ParamsBlob)
	if err != nil {
		return nil, fmt.Errorf("params_blob: %w", err)
	}
	seed, err := hex.DecodeString(p.UpperKeySeed)
	if err != nil {
		return nil, fmt.Errorf("upper_key_seed: %w", err)
	}
	kp := &cx3.KeyParams{
		BootstrapString:  p.BootstrapString,
		WarningString:    p.WarningString,
		ParamsBlob:       blob,
		ArchiveUniqueKey: p.ArchiveUniqueKey,
		UpperKeySeed:     seed,
	}
	if err := kp.Validate(); err != nil {
		return nil, err
	}
	return kp, nil
}

// HasBlackBox reports whether the black-box parameters are present.
func (p *GameParams) HasBlackBox() bool {
	return len(p.Order) > 0
}

// BlackBoxConfig decodes the black-box parameters. An empty rng_variant
// selects xoroshiro128++.
func (p *GameParams) BlackBoxConfig() (cx3.Config, error) {
	order, err := cx3.NewOrderTable(p.Order)
	if err != nil {
		return cx3.Config{}, err
	}
	variant := cx3.VariantPlusPlus
	if p.RNGVariant != "" {
		if variant, err = cx3.ParseRNGVariant(p.RNGVariant); err != nil {
			return cx3.Config{}, err
		}
	}
	cfg := cx3.Config{Order: order, Variant: variant, MaxCost: p.MaxCost}
	if err := cfg.Validate(); err != nil {
		return cx3.Config{}, err
	}
	return cfg, nil
}

// NewBlackBox builds the black box described by the parameters.
func (p *GameParams) NewBlackBox() (*cx3.BlackBox, error) {
	cfg, err := p.BlackBoxConfig()
	if err != nil {
		return nil, err
	}
	return cx3.NewWithConfig(cfg)
}
