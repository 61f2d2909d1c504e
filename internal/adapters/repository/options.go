// Package repository defines the signal store gateway interface and errors.
package repository

import "github.com/groupscholar/earlywarn/pkg/logger"

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *GormStore) {
		if log != nil {
			s.logger = log
		}
	}
}
