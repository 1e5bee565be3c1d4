// Package config loads the hashdoc service configuration from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	hashdoc "github.com/logicossoftware/go-hashdoc"
	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Addr      string `yaml:"addr"`
	BaseURL   string `yaml:"base_url"`
	Preset    string `yaml:"preset"`    // original | high | medium | low
	Algorithm string `yaml:"algorithm"` // none | brotli | zstd | lz4 | flate
	LogLevel  string `yaml:"log_level"` // debug | info | warn | error

	MaxTokenLength int   `yaml:"max_token_length"`
	MaxDecodedSize int   `yaml:"max_decoded_size"`
	MaxBodyBytes   int64 `yaml:"max_body_bytes"`

	// MaxConcurrentImages bounds concurrent image decodes; 0 uses GOMAXPROCS.
	MaxConcurrentImages int `yaml:"max_concurrent_images"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = "/"
	}
	if c.Preset == "" {
		c.Preset = hashdoc.DefaultPreset.String()
	}
	if c.Algorithm == "" {
		c.Algorithm = hashdoc.AlgBrotli.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxTokenLength <= 0 {
		c.MaxTokenLength = hashdoc.MaxTokenLength
	}
	if c.MaxDecodedSize <= 0 {
		c.MaxDecodedSize = 64 << 20
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 32 << 20
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 60 * time.Second
	}
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	if _, err := hashdoc.ParsePreset(c.Preset); err != nil {
		return fmt.Errorf("config: preset: %w", err)
	}
	if _, err := hashdoc.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("config: algorithm: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// Limits returns the codec limits.
func (c *Config) Limits() hashdoc.Limits {
	return hashdoc.Limits{MaxTokenLength: c.MaxTokenLength, MaxDecodedSize: c.MaxDecodedSize}
}

// AlgorithmValue returns Algorithm parsed. It is only valid after Validate.
func (c *Config) AlgorithmValue() hashdoc.Algorithm {
	a, _ := hashdoc.ParseAlgorithm(c.Algorithm)
	return a
}
