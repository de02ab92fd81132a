// Package config resolves layout parameters from parameter maps, presets and
// YAML or TOML run files.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTicks     = 200
	DefaultSeed      = 1
	DefaultTolerance = 0.0
)

// Config describes one layout run.
type Config struct {
	Graph     string       `yaml:"graph,omitempty" toml:"graph,omitempty"`
	Generate  string       `yaml:"generate,omitempty" toml:"generate,omitempty"`
	Preset    string       `yaml:"preset,omitempty" toml:"preset,omitempty"`
	Ticks     int          `yaml:"ticks" toml:"ticks"`
	Seed      int64        `yaml:"seed" toml:"seed"`
	Tolerance float64      `yaml:"tolerance" toml:"tolerance"`
	Layout    ParameterMap `yaml:"layout,omitempty" toml:"layout,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset:    "default",
		Ticks:     DefaultTicks,
		Seed:      DefaultSeed,
		Tolerance: DefaultTolerance,
		Layout:    ParameterMap{},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Layout == nil {
		cfg.Layout = ParameterMap{}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Parameters merges the named preset with the explicit layout keys.
func (c *Config) Parameters() (ParameterMap, error) {
	base := ParameterMap{}
	if c.Preset != "" {
		base = GetPreset(c.Preset)
		if base == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidParameter, c.Preset)
		}
	}
	return base.Merge(c.Layout), nil
}
