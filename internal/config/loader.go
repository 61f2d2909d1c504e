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
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if EARLYWARN_CONFIG is set
//  3. env (prefix EARLYWARN_)
//
// DATABASE_URL is honored as a DSN fallback for parity with the tooling
// operators already use.
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("EARLYWARN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: EARLYWARN_DSN, EARLYWARN_DECAY_CURVE, ...
	// Map env keys like EARLYWARN_TOP_RISK_LIMIT -> top_risk_limit (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("EARLYWARN_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "earlywarn_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}

	// Basic validation
	switch cfg.DecayCurve {
	case DecayLinear, DecayTiered, DecayExponential:
	default:
		return nil, fmt.Errorf("%w: unknown decay_curve %q", ErrInvalidConfig, cfg.DecayCurve)
	}
	if cfg.TopRiskLimit < 1 {
		return nil, fmt.Errorf("%w: top_risk_limit must be positive", ErrInvalidConfig)
	}
	if cfg.SinceDays < 1 {
		return nil, fmt.Errorf("%w: since_days must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
