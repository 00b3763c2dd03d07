package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RELIA_CONFIG is set
//  3. env (prefix RELIA_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RELIA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: RELIA_ADDR, RELIA_BATCH_WORKERS, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("RELIA_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "relia_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("%w: batch_workers must be positive", ErrInvalidConfig)
	}
	if c.MinHistory < 1 {
		return fmt.Errorf("%w: min_history must be positive", ErrInvalidConfig)
	}
	if _, err := cron.ParseStandard(c.BatchSchedule); err != nil {
		return fmt.Errorf("%w: batch_schedule %q: %v", ErrInvalidConfig, c.BatchSchedule, err)
	}
	for name, weight := range c.Weights {
		if weight < 0 {
			return fmt.Errorf("%w: weight %q must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
