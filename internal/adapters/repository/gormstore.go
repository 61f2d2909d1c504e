package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/groupscholar/earlywarn/internal/domain/model"
	"github.com/groupscholar/earlywarn/pkg/logger"
)

// Severity bounds enforced at the gateway in addition to the database CHECK
// constraint, so a bad row fails before touching the store.
const (
	minSeverity = 1
	maxSeverity = 5
)

// GormStore implements Store on a relational database through GORM. All
// methods are safe for concurrent use; deduplication rides on the schema's
// unique indexes rather than any in-process state, so independent importer
// processes stay correct.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormStore creates a store bound to an open GORM handle.
func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	s := &GormStore{
		db:     db,
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or upgrades the scholars and signals tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Scholar{}, &model.Signal{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// UpsertScholar creates the scholar when the email is unseen, otherwise
// returns the existing id without touching name or cohort.
func (s *GormStore) UpsertScholar(ctx context.Context, fullName, email, cohort string) (uuid.UUID, error) {
	scholar := model.Scholar{
		ID:       uuid.New(),
		FullName: fullName,
		Email:    email,
		Cohort:   cohort,
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&scholar)
	if res.Error != nil {
		return uuid.Nil, res.Error
	}
	if res.RowsAffected > 0 {
		return scholar.ID, nil
	}

	// Conflict on email: the scholar already exists. Fetch the stored row so
	// the caller gets the real id, and surface cohort drift for operators.
	var existing model.Scholar
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrNotFound, email)
		}
		return uuid.Nil, err
	}
	if existing.Cohort != cohort {
		s.logger.Debug(ctx, "import references existing scholar with different cohort; keeping stored value",
			logger.String("email", email),
			logger.String("stored_cohort", existing.Cohort),
			logger.String("row_cohort", cohort))
	}
	return existing.ID, nil
}

// InsertSignalIfAbsent inserts the signal unless its source key is taken.
func (s *GormStore) InsertSignalIfAbsent(ctx context.Context, ins SignalInsert) (bool, error) {
	if ins.Severity < minSeverity || ins.Severity > maxSeverity {
		return false, fmt.Errorf("%w: severity %d outside [%d,%d]", ErrValidation, ins.Severity, minSeverity, maxSeverity)
	}

	signal := model.Signal{
		ID:         uuid.New(),
		ScholarID:  ins.ScholarID,
		SignalType: ins.SignalType,
		Severity:   ins.Severity,
		Note:       ins.Note,
		OccurredAt: ins.OccurredAt,
		SourceKey:  ins.SourceKey,
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_key"}},
			DoNothing: true,
		}).
		Create(&signal)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// signalColumns selects the joined read-model fields for SignalRecord.
const signalColumns = "signals.scholar_id, scholars.full_name AS scholar_name, " +
	"scholars.email AS scholar_email, scholars.cohort, signals.signal_type, " +
	"signals.severity, signals.note, signals.occurred_at"

// FetchSignalsForCohort returns the cohort's signals within the window,
// ordered by scholar then occurrence date.
func (s *GormStore) FetchSignalsForCohort(ctx context.Context, cohort string, since time.Time) ([]model.SignalRecord, error) {
	records := make([]model.SignalRecord, 0)
	err := s.db.WithContext(ctx).
		Model(&model.Signal{}).
		Select(signalColumns).
		Joins("JOIN scholars ON scholars.id = signals.scholar_id").
		Where("scholars.cohort = ? AND signals.occurred_at >= ?", cohort, since).
		Order("scholars.full_name, scholars.id, signals.occurred_at").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FetchSignalsForEmail returns one scholar's signals within the window.
func (s *GormStore) FetchSignalsForEmail(ctx context.Context, email string, since time.Time) ([]model.SignalRecord, error) {
	records := make([]model.SignalRecord, 0)
	err := s.db.WithContext(ctx).
		Model(&model.Signal{}).
		Select(signalColumns).
		Joins("JOIN scholars ON scholars.id = signals.scholar_id").
		Where("scholars.email = ? AND signals.occurred_at >= ?", email, since).
		Order("signals.occurred_at").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ScholarsInCohort lists every scholar in the cohort, ordered by name.
func (s *GormStore) ScholarsInCohort(ctx context.Context, cohort string) ([]model.Scholar, error) {
	scholars := make([]model.Scholar, 0)
	err := s.db.WithContext(ctx).
		Where("cohort = ?", cohort).
		Order("full_name, id").
		Find(&scholars).Error
	if err != nil {
		return nil, err
	}
	return scholars, nil
}

// ScholarByEmail fetches one scholar by unique email.
func (s *GormStore) ScholarByEmail(ctx context.Context, email string) (model.Scholar, error) {
	var scholar model.Scholar
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&scholar).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Scholar{}, fmt.Errorf("%w: %s", ErrNotFound, email)
		}
		return model.Scholar{}, err
	}
	return scholar, nil
}

// InTx runs fn inside a database transaction. The transactional Store shares
// this store's configuration.
func (s *GormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, logger: s.logger})
	})
}
