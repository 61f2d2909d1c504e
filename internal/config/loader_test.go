package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/groupscholar/earlywarn/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DecayCurve, convey.ShouldEqual, config.DecayLinear)
				convey.So(cfg.TopRiskLimit, convey.ShouldEqual, 10)
				convey.So(cfg.SinceDays, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("EARLYWARN_DSN", "postgres://ops@db/earlywarn")
			_ = os.Setenv("EARLYWARN_DECAY_CURVE", "tiered")
			_ = os.Setenv("EARLYWARN_TOP_RISK_LIMIT", "5")
			_ = os.Setenv("EARLYWARN_SINCE_DAYS", "60")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DSN, convey.ShouldEqual, "postgres://ops@db/earlywarn")
				convey.So(cfg.DecayCurve, convey.ShouldEqual, config.DecayTiered)
				convey.So(cfg.TopRiskLimit, convey.ShouldEqual, 5)
				convey.So(cfg.SinceDays, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
dsn: "postgres://ops@db/earlywarn"
decay_curve: exponential
decay_half_life_days: 7
top_risk_limit: 20
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EARLYWARN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DSN, convey.ShouldEqual, "postgres://ops@db/earlywarn")
				convey.So(cfg.DecayCurve, convey.ShouldEqual, config.DecayExponential)
				convey.So(cfg.DecayHalfLifeDays, convey.ShouldEqual, 7)
				convey.So(cfg.TopRiskLimit, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
decay_curve: tiered
top_risk_limit: 20
since_days: 90
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EARLYWARN_CONFIG", tmpFile)
			_ = os.Setenv("EARLYWARN_TOP_RISK_LIMIT", "3") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.TopRiskLimit, convey.ShouldEqual, 3)                      // Overridden by env
				convey.So(cfg.DecayCurve, convey.ShouldEqual, config.DecayTiered)      // From file
				convey.So(cfg.SinceDays, convey.ShouldEqual, 90)                       // From file
			})
		})

		convey.Convey("When DATABASE_URL is the only DSN source", func() {
			clearConfigEnvVars()
			_ = os.Setenv("DATABASE_URL", "postgres://fallback@db/earlywarn")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be used as the DSN fallback", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DSN, convey.ShouldEqual, "postgres://fallback@db/earlywarn")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EARLYWARN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("EARLYWARN_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown decay curve", func() {
			_ = os.Setenv("EARLYWARN_DECAY_CURVE", "parabolic")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "decay_curve")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive limit", func() {
			_ = os.Setenv("EARLYWARN_TOP_RISK_LIMIT", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "top_risk_limit")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
decay_curve: tiered
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EARLYWARN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DecayCurve, convey.ShouldEqual, config.DecayTiered) // From file
				convey.So(cfg.TopRiskLimit, convey.ShouldEqual, 10)               // From defaults
				convey.So(cfg.SinceDays, convey.ShouldEqual, 30)                  // From defaults
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"EARLYWARN_CONFIG",
		"EARLYWARN_DSN",
		"EARLYWARN_LOG_LEVEL",
		"EARLYWARN_DECAY_CURVE",
		"EARLYWARN_DECAY_MIN_WEIGHT",
		"EARLYWARN_DECAY_HALF_LIFE_DAYS",
		"EARLYWARN_TOP_RISK_LIMIT",
		"EARLYWARN_SINCE_DAYS",
		"DATABASE_URL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "earlywarn-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
