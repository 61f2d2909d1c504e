// Package risk computes time-decayed risk scores from stored signal history.
package risk

import (
	"context"
	"errors"
	"time"

	repository "github.com/groupscholar/earlywarn/internal/adapters/repository"
	"github.com/groupscholar/earlywarn/internal/domain/decay"
	"github.com/groupscholar/earlywarn/internal/domain/model"
	"github.com/groupscholar/earlywarn/pkg/logger"
	"github.com/groupscholar/earlywarn/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithDecay sets the recency-weight strategy.
func WithDecay(strategy decay.Strategy) Option {
	return func(e *Engine) {
		if strategy != nil {
			e.decay = strategy
		}
	}
}

// WithClock sets the reference-time source. Scoring captures "today" exactly
// once per run from this clock, which keeps runs reproducible in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// Engine reads signal history through the store gateway and scores it.
// Scoring is read-only and always re-derived from stored signals; results
// are never cached.
type Engine struct {
	store  repository.Store
	decay  decay.Strategy
	now    func() time.Time
	logger logger.Logger
}

// New creates an Engine with the default linear decay curve.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		decay: decay.Linear(decay.DefaultMinWeight),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get()
	}
	return e
}

// ScoreCohort scores every scholar of the cohort over the lookback window.
// Scholars with zero qualifying signals are included at score 0. An unknown
// cohort yields an empty slice. Result order is unspecified beyond being
// deterministic; ranking is the report assembler's concern.
func (e *Engine) ScoreCohort(ctx context.Context, cohort string, sinceDays int) ([]model.ScoredScholar, error) {
	start := time.Now()
	today, since, window := e.window(sinceDays)

	records, err := e.store.FetchSignalsForCohort(ctx, cohort, since)
	if err != nil {
		metrics.RecordStoreError()
		return nil, err
	}
	scholars, err := e.store.ScholarsInCohort(ctx, cohort)
	if err != nil {
		metrics.RecordStoreError()
		return nil, err
	}

	scored := Compute(records, scholars, today, window, e.decay)

	metrics.RecordScoringRun()
	metrics.UpdateScholarsScored(len(scored))
	metrics.UpdateSignalsInWindow(len(records))
	metrics.RecordScoringDuration(time.Since(start).Seconds())
	e.logger.Debug(ctx, "scored cohort",
		logger.String("cohort", cohort),
		logger.Int("since_days", window),
		logger.Int("scholars", len(scored)),
		logger.Int("signals", len(records)))
	return scored, nil
}

// ScoreEmail scores a single scholar addressed by email. An unknown email
// yields an empty slice, not an error.
func (e *Engine) ScoreEmail(ctx context.Context, email string, sinceDays int) ([]model.ScoredScholar, error) {
	today, since, window := e.window(sinceDays)

	scholar, err := e.store.ScholarByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []model.ScoredScholar{}, nil
		}
		metrics.RecordStoreError()
		return nil, err
	}
	records, err := e.store.FetchSignalsForEmail(ctx, email, since)
	if err != nil {
		metrics.RecordStoreError()
		return nil, err
	}

	scored := Compute(records, []model.Scholar{scholar}, today, window, e.decay)
	metrics.RecordScoringRun()
	return scored, nil
}

// Window reports the cutoff date the engine would use for a run starting
// now. Exposed so callers fetching raw records for reports share the same
// boundary semantics.
func (e *Engine) Window(sinceDays int) (today, since time.Time, window int) {
	return e.window(sinceDays)
}

func (e *Engine) window(sinceDays int) (today, since time.Time, window int) {
	if sinceDays < 1 {
		sinceDays = 1
	}
	now := e.now().UTC()
	today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	// A signal exactly since_days old is inside the window.
	since = today.AddDate(0, 0, -sinceDays)
	return today, since, sinceDays
}

// Compute aggregates signal records into per-scholar scores. Pure: identical
// inputs always yield identical output. Every scholar in scholars appears in
// the result even with no qualifying records; records for scholars missing
// from the list (e.g. the email scope) are still scored.
func Compute(records []model.SignalRecord, scholars []model.Scholar, today time.Time, windowDays int, strategy decay.Strategy) []model.ScoredScholar {
	index := make(map[string]*model.ScoredScholar, len(scholars))
	ordered := make([]*model.ScoredScholar, 0, len(scholars))

	add := func(id, name, email, cohort string) *model.ScoredScholar {
		if s, ok := index[id]; ok {
			return s
		}
		s := &model.ScoredScholar{
			FullName: name,
			Email:    email,
			Cohort:   cohort,
			Mix:      make(map[string]model.TypeStat),
		}
		index[id] = s
		ordered = append(ordered, s)
		return s
	}

	for i := range scholars {
		sc := add(scholars[i].ID.String(), scholars[i].FullName, scholars[i].Email, scholars[i].Cohort)
		sc.ScholarID = scholars[i].ID
	}

	for i := range records {
		rec := &records[i]
		age := ageDays(today, rec.OccurredAt)
		if age < 0 || age > windowDays {
			// Outside the window; the store query should not hand us these,
			// but the contract is explicit.
			continue
		}
		weight := strategy.Weight(age, windowDays)
		contribution := float64(rec.Severity) * weight

		sc := add(rec.ScholarID.String(), rec.ScholarName, rec.ScholarEmail, rec.Cohort)
		sc.ScholarID = rec.ScholarID
		sc.Score += contribution
		sc.SignalCount++

		stat := sc.Mix[rec.SignalType]
		stat.Count++
		stat.Weighted += contribution
		sc.Mix[rec.SignalType] = stat
	}

	out := make([]model.ScoredScholar, len(ordered))
	for i, s := range ordered {
		out[i] = *s
	}
	return out
}

// ageDays counts whole calendar days between the occurrence date and today.
func ageDays(today, occurred time.Time) int {
	occ := time.Date(occurred.Year(), occurred.Month(), occurred.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(occ) / (24 * time.Hour))
}
