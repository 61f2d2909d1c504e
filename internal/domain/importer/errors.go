package importer

import "errors"

// Sentinel kinds for import errors.
var (
	// ErrInvalidRow marks a row rejected before any store write. It is
	// absorbed into the run summary, never returned from Run.
	ErrInvalidRow = errors.New("invalid import row")
)
