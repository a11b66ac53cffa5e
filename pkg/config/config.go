// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Option customises Load.
type Option func(*loader)

type loader struct {
	envPrefix string
	optional  bool
}

// WithEnvPrefix sets the prefix of the variables read for `env` struct tags.
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) {
		l.envPrefix = prefix
	}
}

// Optional makes a missing file fall back to the values already in target.
func Optional() Option {
	return func(l *loader) {
		l.optional = true
	}
}

// Load loads configuration from a YAML file with environment variable expansion,
// then applies overrides from variables named by `env` struct tags and
// validates the result.
func Load[T any](filename string, target *T, opts ...Option) error {
	l := loader{}
	for _, opt := range opts {
		opt(&l)
	}

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", filename, err)
		}
	case l.optional && errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := env.ParseWithOptions(target, env.Options{Prefix: l.envPrefix}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// MustLoad loads configuration and panics on failure.
func MustLoad[T any](filename string, target *T, opts ...Option) {
	if err := Load(filename, target, opts...); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}
