// Package config loads the YAML configuration shared by the ka3d tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/pkg/ka3d"
	"gopkg.in/yaml.v3"
)

// Config holds tool settings. Command line flags override file values.
type Config struct {
	CheckBounds  bool   `yaml:"check_bounds"`
	TextEncoding string `yaml:"text_encoding,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
	Where        string `yaml:"where,omitempty"`
	Depth        int    `yaml:"depth"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Depth:    1,
	}
}

// Load reads path on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := c.Load(b); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load decodes YAML into c. Unknown keys are rejected.
func (c *Config) Load(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config: %w", err)
	}
	return c.Validate()
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the values that can be checked without a container.
func (c *Config) Validate() error {
	var errs []error
	if c.Depth < 0 {
		errs = append(errs, fmt.Errorf("depth must not be negative, got %d", c.Depth))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := datfile.LookupEncoding(c.TextEncoding); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	name := strings.TrimSpace(c.LogLevel)
	if name == "" {
		return slog.LevelWarn, nil
	}
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Logger builds a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// CodecOptions translates the settings into codec options.
func (c *Config) CodecOptions(logger *slog.Logger) ([]ka3d.Option, error) {
	enc, err := datfile.LookupEncoding(c.TextEncoding)
	if err != nil {
		return nil, err
	}
	opts := []ka3d.Option{
		ka3d.WithCheckBounds(c.CheckBounds),
		ka3d.WithTextEncoding(enc),
	}
	if logger != nil {
		opts = append(opts, ka3d.WithLogger(logger))
	}
	return opts, nil
}
