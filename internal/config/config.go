// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Decay curve names accepted in configuration.
const (
	DecayLinear      = "linear"
	DecayTiered      = "tiered"
	DecayExponential = "exponential"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DSN is the Postgres connection string. Falls back to DATABASE_URL
	// when unset.
	DSN string `koanf:"dsn"`

	// DecayCurve selects the recency-weight strategy: linear, tiered, or
	// exponential.
	DecayCurve string `koanf:"decay_curve"`

	// DecayMinWeight floors the weight of the oldest in-window signals.
	DecayMinWeight float64 `koanf:"decay_min_weight"`

	// DecayHalfLifeDays tunes the exponential curve.
	DecayHalfLifeDays float64 `koanf:"decay_half_life_days"`

	// TopRiskLimit caps the ranked list in reports and score output.
	TopRiskLimit int `koanf:"top_risk_limit"`

	// SinceDays is the default lookback window when a command does not
	// pass one explicitly.
	SinceDays int `koanf:"since_days"`
}

// New creates a Config with defaults.
func New() *Config {
	c := &Config{
		LogLevel:          "info",
		DSN:               "",
		DecayCurve:        DecayLinear,
		DecayMinWeight:    0.1,
		DecayHalfLifeDays: 14,
		TopRiskLimit:      10,
		SinceDays:         30,
	}
	return c
}
