// Command earlywarn runs the cohort early-warning pipeline: import risk
// signals from CSV, score scholars with recency-decayed weights, and render
// markdown reports for program staff.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/groupscholar/earlywarn/internal/adapters/repository"
	service "github.com/groupscholar/earlywarn/internal/app"
	"github.com/groupscholar/earlywarn/internal/config"
	"github.com/groupscholar/earlywarn/pkg/logger"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "earlywarn",
	Short: "Cohort early-warning signal tracker",
	Long: `earlywarn ingests scholar risk signals, scores them with
time-decayed weights, and renders ranked reports so program staff can
see who needs outreach first.

Logs go to stderr; command output stays on stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bootstrap(cmd.Context())
	},
}

// bootstrap mirrors process start-up: env file, logging, configuration.
func bootstrap(ctx context.Context) error {
	// Missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	loaded, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	// Fall back to info on an invalid level rather than refusing to run.
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// buildService opens the database and wires the pipeline facade. Extra
// options apply after configuration, so flags can override it.
func buildService(ctx context.Context, opts ...service.Option) (*service.Service, error) {
	db, err := repository.Open(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	store := repository.NewGormStore(db, repository.WithLogger(logger.Get()))
	base := []service.Option{
		service.WithLogger(logger.Get()),
		service.WithConfig(cfg),
	}
	return service.New(store, append(base, opts...)...), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		_ = logger.Sync()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
