package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithMigrations toggles applying the embedded schema on open.
func WithMigrations(enabled bool) Option {
	return func(s *SQLiteStore) {
		s.migrate = enabled
	}
}
