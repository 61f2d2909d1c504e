// Package service wires the import, scoring and report components into the
// facade the CLI calls.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/groupscholar/earlywarn/internal/adapters/csvfile"
	"github.com/groupscholar/earlywarn/internal/adapters/repository"
	"github.com/groupscholar/earlywarn/internal/config"
	"github.com/groupscholar/earlywarn/internal/domain/decay"
	"github.com/groupscholar/earlywarn/internal/domain/importer"
	"github.com/groupscholar/earlywarn/internal/domain/model"
	"github.com/groupscholar/earlywarn/internal/domain/report"
	"github.com/groupscholar/earlywarn/internal/domain/risk"
	"github.com/groupscholar/earlywarn/pkg/logger"
)

// Service implements the command surface of the early-warning pipeline.
type Service struct {
	store repository.Store

	// Configuration
	decay        decay.Strategy
	topRiskLimit int
	sinceDays    int
	now          func() time.Time

	// Built once from the fields above.
	engine *risk.Engine

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithDecay overrides the recency-weight strategy.
func WithDecay(strategy decay.Strategy) Option {
	return func(s *Service) {
		if strategy != nil {
			s.decay = strategy
		}
	}
}

// WithTopRiskLimit caps the ranked list in report output.
func WithTopRiskLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.topRiskLimit = limit
		}
	}
}

// WithSinceDays sets the default lookback window for score and report.
func WithSinceDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.sinceDays = days
		}
	}
}

// WithClock overrides the time source. Tests pin "today" with this.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithConfig applies the decay curve, list limit and default window from
// loaded configuration in one shot.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		s.decay = DecayFromConfig(cfg)
		if cfg.TopRiskLimit > 0 {
			s.topRiskLimit = cfg.TopRiskLimit
		}
		if cfg.SinceDays > 0 {
			s.sinceDays = cfg.SinceDays
		}
	}
}

// DecayFromConfig maps a configured curve name onto a strategy. Unknown
// names fall back to the linear default; config.Load rejects them earlier.
func DecayFromConfig(cfg *config.Config) decay.Strategy {
	switch cfg.DecayCurve {
	case config.DecayTiered:
		return decay.Tiered()
	case config.DecayExponential:
		return decay.Exponential(cfg.DecayHalfLifeDays, cfg.DecayMinWeight)
	default:
		return decay.Linear(cfg.DecayMinWeight)
	}
}

// New constructs a Service around the given store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		decay:        decay.Linear(decay.DefaultMinWeight),
		topRiskLimit: report.DefaultTopRiskLimit,
		sinceDays:    30,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.engine = risk.New(s.store,
		risk.WithDecay(s.decay),
		risk.WithClock(s.now),
		risk.WithLogger(s.logger),
	)
	return s
}

// InitSchema creates or upgrades the database schema.
func (s *Service) InitSchema(ctx context.Context) error {
	if err := s.store.Migrate(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	s.logger.Info(ctx, "schema ready")
	return nil
}

// Seed loads the built-in demo scholars and signals. Safe to rerun.
func (s *Service) Seed(ctx context.Context) error {
	if err := s.store.Seed(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.logger.Info(ctx, "seed data loaded")
	return nil
}

// Import reads the CSV at path and reconciles every row into the store.
// A summary is returned even when some rows failed; the error reports
// store-level aborts, not row-level rejects.
func (s *Service) Import(ctx context.Context, path string) (importer.Summary, error) {
	rows, err := csvfile.ReadRows(path)
	if err != nil {
		return importer.Summary{}, err
	}
	s.logger.Info(ctx, "import started",
		logger.String("path", path),
		logger.Int("rows", len(rows)),
	)
	rec := importer.New(s.store, importer.WithLogger(s.logger))
	return rec.Run(ctx, rows)
}

// ScoreCohort ranks every scholar of the cohort by decayed risk score.
// sinceDays <= 0 uses the configured default window.
func (s *Service) ScoreCohort(ctx context.Context, cohort string, sinceDays int) ([]model.ScoredScholar, error) {
	scored, err := s.engine.ScoreCohort(ctx, cohort, s.window(sinceDays))
	if err != nil {
		return nil, err
	}
	return report.Rank(scored), nil
}

// ScoreScholar scores a single scholar by email. An unknown email yields an
// empty result, mirroring an unknown cohort.
func (s *Service) ScoreScholar(ctx context.Context, email string, sinceDays int) ([]model.ScoredScholar, error) {
	return s.engine.ScoreEmail(ctx, email, s.window(sinceDays))
}

// ReportCohort renders the markdown early-warning report for the cohort.
func (s *Service) ReportCohort(ctx context.Context, cohort string, sinceDays int) (string, error) {
	window := s.window(sinceDays)
	today, since, window := s.engine.Window(window)

	records, err := s.store.FetchSignalsForCohort(ctx, cohort, since)
	if err != nil {
		return "", err
	}
	scholars, err := s.store.ScholarsInCohort(ctx, cohort)
	if err != nil {
		return "", err
	}
	scored := risk.Compute(records, scholars, today, window, s.decay)
	return s.render(cohort, since, window, scored, records), nil
}

// ReportScholar renders the report for one scholar. Unlike scoring, an
// unknown email is an error here: there is nothing to report on.
func (s *Service) ReportScholar(ctx context.Context, email string, sinceDays int) (string, error) {
	window := s.window(sinceDays)
	today, since, window := s.engine.Window(window)

	scholar, err := s.store.ScholarByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("report for %s: %w", email, err)
	}
	records, err := s.store.FetchSignalsForEmail(ctx, email, since)
	if err != nil {
		return "", err
	}
	scored := risk.Compute(records, []model.Scholar{scholar}, today, window, s.decay)
	return s.render(email, since, window, scored, records), nil
}

func (s *Service) render(scope string, since time.Time, window int, scored []model.ScoredScholar, records []model.SignalRecord) string {
	params := report.Params{
		Scope:        scope,
		SinceDays:    window,
		Cutoff:       since,
		TopRiskLimit: s.topRiskLimit,
	}
	return report.Build(params, scored, records)
}

func (s *Service) window(sinceDays int) int {
	if sinceDays <= 0 {
		return s.sinceDays
	}
	return sinceDays
}
