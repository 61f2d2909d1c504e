package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrValidation marks a write rejected by a data constraint, e.g. a
	// severity outside [1,5]. Recovered per-row during import.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable marks connection-level failures. Fatal: commands
	// abort when the store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound marks a missing scholar lookup.
	ErrNotFound = errors.New("scholar not found")
)
