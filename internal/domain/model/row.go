package model

// SignalRow is one normalized import row as read from tabular input. Severity
// and OccurredAt travel as raw strings so that malformed cells surface as
// per-row validation failures instead of aborting the whole file.
type SignalRow struct {
	FullName   string `validate:"required"`
	Email      string `validate:"required,email"`
	Cohort     string `validate:"required"`
	SignalType string `validate:"required"`
	Severity   string `validate:"required"`
	Note       string
	OccurredAt string `validate:"required"`
	// SourceKey is optional; when empty the reconciler derives a stable
	// composite key from the row content.
	SourceKey string
}
