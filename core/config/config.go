// Package config loads engine configuration from TOML or YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ankit-chaubey/upload-surgery/core"
	"github.com/ankit-chaubey/upload-surgery/core/dispatch"
)

// Default configuration values used when a field is missing.
const (
	DefaultConfigPath = "surgery.toml"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultMaxBytes   = dispatch.DefaultMaxBytes
	DefaultNamePrefix = "MDB_"
)

// Config is the root configuration.
type Config struct {
	Log    LogConfig    `toml:"log" yaml:"log"`
	Strip  StripConfig  `toml:"strip" yaml:"strip"`
	Naming NamingConfig `toml:"naming" yaml:"naming"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// StripConfig controls the dispatcher.
type StripConfig struct {
	MaxBytes   int      `toml:"max_bytes" yaml:"max_bytes"`
	StrictMime bool     `toml:"strict_mime" yaml:"strict_mime"`
	Disabled   []string `toml:"disabled" yaml:"disabled"` // kind names, e.g. ["gif"]
}

// NamingConfig controls upload filename randomization.
type NamingConfig struct {
	Randomize bool   `toml:"randomize" yaml:"randomize"`
	Prefix    string `toml:"prefix" yaml:"prefix"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Strip: StripConfig{
			MaxBytes: DefaultMaxBytes,
		},
		Naming: NamingConfig{
			Prefix: DefaultNamePrefix,
		},
	}
}

// Load reads the config file at path over the defaults. Files ending in
// .yaml or .yml are YAML, everything else TOML. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		_, err = toml.Decode(string(data), &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if _, err := cfg.DisabledKinds(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DisabledKinds resolves Strip.Disabled to format kinds.
func (c Config) DisabledKinds() ([]core.FormatKind, error) {
	kinds := make([]core.FormatKind, 0, len(c.Strip.Disabled))
	for _, name := range c.Strip.Disabled {
		k, ok := core.ParseFormatKind(strings.ToLower(strings.TrimSpace(name)))
		if !ok || k == core.Passthrough {
			return nil, fmt.Errorf("config: strip.disabled: unknown format %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// DispatchOptions converts the strip section to dispatcher options.
// Unknown names in Strip.Disabled are ignored; Load has already rejected them.
func (c Config) DispatchOptions() dispatch.Options {
	kinds, _ := c.DisabledKinds()
	return dispatch.Options{
		MaxBytes:   c.Strip.MaxBytes,
		StrictMime: c.Strip.StrictMime,
		Disabled:   kinds,
	}
}
