// Package importer reconciles normalized signal rows against the store.
//
// The reconciler is idempotent end to end: validation failures skip the row,
// duplicate source keys skip the write, and re-running the same input yields
// zero new inserts. Only store-level failures abort a run.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	repository "github.com/groupscholar/earlywarn/internal/adapters/repository"
	"github.com/groupscholar/earlywarn/internal/domain/model"
	"github.com/groupscholar/earlywarn/pkg/logger"
	"github.com/groupscholar/earlywarn/pkg/metrics"
)

// occurredAtLayout is the calendar-date format accepted on import rows.
const occurredAtLayout = "2006-01-02"

// Severity bounds for import rows.
const (
	minSeverity = 1
	maxSeverity = 5
)

// RowFailure records why one row was skipped. Row numbers are 1-based over
// the data rows (the header line is not counted).
type RowFailure struct {
	Row    int
	Reason string
}

// Summary is the per-run result surfaced to the operator.
type Summary struct {
	Processed  int
	Inserted   int
	Duplicates int
	Invalid    int
	Failures   []RowFailure
}

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(log logger.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.logger = log
		}
	}
}

// WithValidator sets a custom validator instance.
func WithValidator(v *validator.Validate) Option {
	return func(r *Reconciler) {
		if v != nil {
			r.validate = v
		}
	}
}

// Reconciler performs idempotent imports of signal rows.
type Reconciler struct {
	store    repository.Store
	validate *validator.Validate
	logger   logger.Logger
}

// New creates a Reconciler writing through the given store.
func New(store repository.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// parsedRow is a SignalRow after validation and parsing.
type parsedRow struct {
	row       model.SignalRow
	severity  int
	occurred  time.Time
	sourceKey string
}

// Run imports the rows. Row-level failures are absorbed into the summary;
// the returned error is non-nil only for store-level failures, in which case
// the summary covers the rows handled up to that point.
func (r *Reconciler) Run(ctx context.Context, rows []model.SignalRow) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	for i, row := range rows {
		rowNum := i + 1
		summary.Processed++
		metrics.RecordRowProcessed()

		parsed, err := r.parseRow(row)
		if err != nil {
			summary.Invalid++
			summary.Failures = append(summary.Failures, RowFailure{Row: rowNum, Reason: err.Error()})
			metrics.RecordRowInvalid()
			r.logger.Warn(ctx, "skipping invalid import row",
				logger.Int("row", rowNum),
				logger.Error(err))
			continue
		}

		// One atomic unit per row: a crash between scholar upsert and signal
		// insert must not break idempotence on re-run.
		var inserted bool
		err = r.store.InTx(ctx, func(tx repository.Store) error {
			scholarID, err := tx.UpsertScholar(ctx, parsed.row.FullName, parsed.row.Email, parsed.row.Cohort)
			if err != nil {
				return err
			}
			inserted, err = tx.InsertSignalIfAbsent(ctx, repository.SignalInsert{
				ScholarID:  scholarID,
				SignalType: parsed.row.SignalType,
				Severity:   parsed.severity,
				Note:       parsed.row.Note,
				OccurredAt: parsed.occurred,
				SourceKey:  parsed.sourceKey,
			})
			return err
		})
		if err != nil {
			if errors.Is(err, repository.ErrValidation) {
				summary.Invalid++
				summary.Failures = append(summary.Failures, RowFailure{Row: rowNum, Reason: err.Error()})
				metrics.RecordRowInvalid()
				continue
			}
			// Store-level failure: abort the run.
			metrics.RecordStoreError()
			return summary, fmt.Errorf("import row %d: %w", rowNum, err)
		}

		if inserted {
			summary.Inserted++
			metrics.RecordRowInserted()
		} else {
			summary.Duplicates++
			metrics.RecordRowDuplicate()
		}
	}

	metrics.RecordImportDuration(time.Since(start).Seconds())
	r.logger.Info(ctx, "import finished",
		logger.Int("processed", summary.Processed),
		logger.Int("inserted", summary.Inserted),
		logger.Int("duplicates", summary.Duplicates),
		logger.Int("invalid", summary.Invalid))
	return summary, nil
}

// parseRow validates a raw row and resolves its severity, occurrence date,
// and source key.
func (r *Reconciler) parseRow(row model.SignalRow) (parsedRow, error) {
	if err := r.validate.Struct(row); err != nil {
		return parsedRow{}, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}

	severity, err := strconv.Atoi(row.Severity)
	if err != nil {
		return parsedRow{}, fmt.Errorf("%w: severity %q is not an integer", ErrInvalidRow, row.Severity)
	}
	if severity < minSeverity || severity > maxSeverity {
		return parsedRow{}, fmt.Errorf("%w: severity %d outside [%d,%d]", ErrInvalidRow, severity, minSeverity, maxSeverity)
	}

	occurred, err := time.Parse(occurredAtLayout, row.OccurredAt)
	if err != nil {
		return parsedRow{}, fmt.Errorf("%w: occurred_at %q is not a calendar date", ErrInvalidRow, row.OccurredAt)
	}

	sourceKey := row.SourceKey
	if sourceKey == "" {
		sourceKey = DeriveSourceKey(row.Email, row.SignalType, row.OccurredAt)
	}

	return parsedRow{
		row:       row,
		severity:  severity,
		occurred:  occurred,
		sourceKey: sourceKey,
	}, nil
}
