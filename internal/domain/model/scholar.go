// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Scholar is a tracked program participant. Email is globally unique and a
// scholar belongs to exactly one cohort. The pipeline never mutates a scholar
// after creation; cohort/name changes are an operator action.
type Scholar struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;uniqueIndex;not null"`
	Cohort    string    `gorm:"size:64;index;not null"`
	CreatedAt time.Time
}

// Signal is a single dated, typed, severity-rated observation about a scholar.
// Signals are insert-only and cascade-deleted with their scholar. SourceKey is
// the idempotency key: a second insert with the same key is a no-op.
type Signal struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScholarID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Scholar    *Scholar  `gorm:"foreignKey:ScholarID;constraint:OnDelete:CASCADE"`
	SignalType string    `gorm:"size:64;not null"`
	Severity   int       `gorm:"not null;check:severity >= 1 AND severity <= 5"`
	Note       string    `gorm:"type:text"`
	OccurredAt time.Time `gorm:"type:date;not null;index"`
	SourceKey  string    `gorm:"size:255;uniqueIndex;not null"`
	CreatedAt  time.Time
}

// SignalRecord is the joined read model returned by the store for scoring and
// reporting: one signal together with the owning scholar's identity.
type SignalRecord struct {
	ScholarID    uuid.UUID
	ScholarName  string
	ScholarEmail string
	Cohort       string
	SignalType   string
	Severity     int
	Note         string
	OccurredAt   time.Time
}
