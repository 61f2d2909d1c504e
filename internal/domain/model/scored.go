package model

import (
	"time"

	"github.com/google/uuid"
)

// TypeStat captures per-signal-type figures inside a scoring window.
// Count is unweighted; Weighted is the decayed severity contribution.
type TypeStat struct {
	Count    int
	Weighted float64
}

// ScoredScholar is the computed risk result for one scholar. It is never
// persisted; every scoring run rebuilds it from stored signals.
type ScoredScholar struct {
	ScholarID   uuid.UUID
	FullName    string
	Email       string
	Cohort      string
	Score       float64
	Mix         map[string]TypeStat
	SignalCount int
}

// TrendBucket aggregates signal volume for one calendar week of the window.
type TrendBucket struct {
	WeekStart    time.Time
	SignalCount  int
	ScholarCount int
	AvgSeverity  float64
}
