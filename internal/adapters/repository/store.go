// Package repository defines the signal store gateway interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groupscholar/earlywarn/internal/domain/model"
)

// SignalInsert carries one signal write. SourceKey must already be resolved;
// deriving keys for keyless rows is the import reconciler's job.
type SignalInsert struct {
	ScholarID  uuid.UUID
	SignalType string
	Severity   int
	Note       string
	OccurredAt time.Time
	SourceKey  string
}

// Store provides typed read/write access to scholars and signals. The store's
// uniqueness constraints (scholar email, signal source_key) are the source of
// truth for deduplication; callers never rely on in-memory state for it.
type Store interface {
	// UpsertScholar creates the scholar if the email is unseen and returns the
	// existing id otherwise. Name and cohort of an existing scholar are left
	// untouched: imports must not silently relabel a scholar.
	UpsertScholar(ctx context.Context, fullName, email, cohort string) (uuid.UUID, error)

	// InsertSignalIfAbsent inserts the signal unless its source key already
	// exists. Returns false without error on a duplicate key, ErrValidation
	// when severity is outside [1,5].
	InsertSignalIfAbsent(ctx context.Context, ins SignalInsert) (bool, error)

	// FetchSignalsForCohort returns all signals for scholars in the cohort
	// with occurred_at on or after since, ordered by scholar then occurrence
	// date. An unknown cohort yields an empty slice, not an error.
	FetchSignalsForCohort(ctx context.Context, cohort string, since time.Time) ([]model.SignalRecord, error)

	// FetchSignalsForEmail is the single-scholar variant used by the
	// --email scope on score and report.
	FetchSignalsForEmail(ctx context.Context, email string, since time.Time) ([]model.SignalRecord, error)

	// ScholarsInCohort lists every scholar of the cohort so that members with
	// zero in-window signals still appear in scoring output.
	ScholarsInCohort(ctx context.Context, cohort string) ([]model.Scholar, error)

	// ScholarByEmail fetches one scholar. Returns ErrNotFound when the email
	// is unknown.
	ScholarByEmail(ctx context.Context, email string) (model.Scholar, error)

	// InTx runs fn against a transactional view of the store. Used by import
	// to make each row's scholar-upsert plus signal-insert one atomic unit.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	// Seed loads a small deterministic data set; re-seeding is a no-op.
	Seed(ctx context.Context) error
}
