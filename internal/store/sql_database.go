package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/migrations"
)

// defaultRetryDelays are the pauses between attempts of an operation whose
// error the retry policy accepts.
var defaultRetryDelays = []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, time.Second}

type DB struct {
	*sql.DB
	retryPolicy RetryPolicy
	logger      *logger.Logger
	retryDelays []time.Duration
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}

// withRetry runs fn and repeats it after each configured delay as long as
// it fails with an error the retry policy accepts.
func (db *DB) withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	for _, delay := range db.retryDelays {
		if err == nil || !db.retryPolicy.ShouldRetry(err) {
			return err
		}
		db.logger.Warn().Err(err).Str("sqlstate", postgresError(err)).Dur("delay", delay).Msg("retrying database operation")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		err = fn()
	}
	return err
}
