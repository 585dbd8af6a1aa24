// Package config manages promptweave CLI configuration
// (~/.config/promptweave/config.toml).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds user-wide CLI settings.
type Config struct {
	Tokenizer  TokenizerConfig  `toml:"tokenizer"`
	Truncation TruncationConfig `toml:"truncation"`
	Templates  TemplatesConfig  `toml:"templates"`
}

// TokenizerConfig selects the BPE encoding used for tokenization.
type TokenizerConfig struct {
	Encoding string `toml:"encoding"`
}

// TruncationConfig holds the default truncation parameters applied when
// flags don't override them. TokenLimit -1 disables truncation.
type TruncationConfig struct {
	TokenLimit int `toml:"token_limit"`
	Step       int `toml:"step"`
}

// TemplatesConfig sizes the compiled-template cache.
type TemplatesConfig struct {
	CacheMaxEntries int `toml:"cache_max_entries"`
	CacheTTLSecs    int `toml:"cache_ttl_secs"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Tokenizer: TokenizerConfig{
			Encoding: "cl100k_base",
		},
		Truncation: TruncationConfig{
			TokenLimit: -1,
			Step:       1000,
		},
		Templates: TemplatesConfig{
			CacheMaxEntries: 100,
			CacheTTLSecs:    30,
		},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "promptweave", "config.toml"), nil
}

// Load loads the config from the default path, applying defaults for
// any missing values.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil // Can't determine home dir — use defaults.
	}
	return LoadFrom(path)
}

// LoadFrom loads the config from path, applying defaults for any
// missing values. A missing file yields the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load: %w", err)
		}
	}

	// The env var overrides the encoding whether or not a config file
	// exists.
	if v := os.Getenv("PROMPTWEAVE_ENCODING"); v != "" {
		cfg.Tokenizer.Encoding = v
	}
	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}
