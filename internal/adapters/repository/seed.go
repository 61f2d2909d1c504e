package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/groupscholar/earlywarn/internal/domain/model"
)

// seedScholars and seedSignals form a small deterministic data set for demos
// and smoke tests. Fixed ids and source keys make re-seeding a no-op.
var seedScholars = []model.Scholar{
	{
		ID:       uuid.MustParse("3d7f5d6f-24f7-4e8e-8b4b-3e7e44b4a7b2"),
		FullName: "Avery Lee",
		Email:    "avery.lee@groupscholar.com",
		Cohort:   "2026",
	},
	{
		ID:       uuid.MustParse("0c22f1f1-9184-4fd4-9b21-28c68a6a89dc"),
		FullName: "Jules Moreno",
		Email:    "jules.moreno@groupscholar.com",
		Cohort:   "2025",
	},
	{
		ID:       uuid.MustParse("d5a0a1a2-2a3c-44c2-8f73-60b7897a9dd2"),
		FullName: "Kiara Patel",
		Email:    "kiara.patel@groupscholar.com",
		Cohort:   "2026",
	},
}

type seedSignal struct {
	sourceKey  string
	email      string
	signalType string
	severity   int
	note       string
	occurredAt time.Time
}

var seedSignals = []seedSignal{
	{
		sourceKey:  "seed-001",
		email:      "avery.lee@groupscholar.com",
		signalType: "attendance",
		severity:   3,
		note:       "Missed last two sessions",
		occurredAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	},
	{
		sourceKey:  "seed-002",
		email:      "jules.moreno@groupscholar.com",
		signalType: "engagement",
		severity:   2,
		note:       "Slow response to outreach",
		occurredAt: time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC),
	},
	{
		sourceKey:  "seed-003",
		email:      "kiara.patel@groupscholar.com",
		signalType: "academic",
		severity:   4,
		note:       "Reported GPA dip",
		occurredAt: time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC),
	},
}

// Seed inserts the seed scholars and signals. Existing rows are kept as-is.
func (s *GormStore) Seed(ctx context.Context) error {
	for i := range seedScholars {
		scholar := seedScholars[i]
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoNothing: true,
			}).
			Create(&scholar)
		if res.Error != nil {
			return res.Error
		}
	}

	for _, seed := range seedSignals {
		var scholar model.Scholar
		if err := s.db.WithContext(ctx).Where("email = ?", seed.email).First(&scholar).Error; err != nil {
			return err
		}
		if _, err := s.InsertSignalIfAbsent(ctx, SignalInsert{
			ScholarID:  scholar.ID,
			SignalType: seed.signalType,
			Severity:   seed.severity,
			Note:       seed.note,
			OccurredAt: seed.occurredAt,
			SourceKey:  seed.sourceKey,
		}); err != nil {
			return err
		}
	}
	return nil
}
