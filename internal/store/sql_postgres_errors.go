package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// RetryPolicy decides whether a failed statement is worth repeating.
type RetryPolicy interface {
	ShouldRetry(err error) bool
}

// postgresRetryPolicy retries transient failures only: lost connections,
// serialization conflicts and deadlocks, and a server that is shutting
// down or starting up. Constraint, syntax and data errors never succeed on
// a second attempt.
type postgresRetryPolicy struct{}

func newPostgresRetryPolicy() RetryPolicy {
	return postgresRetryPolicy{}
}

func (postgresRetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// the statement never reached the server
		return pgconn.SafeToRetry(err)
	}
	return retryableSQLState(pgErr.Code)
}

func retryableSQLState(code string) bool {
	switch {
	case pgerrcode.IsConnectionException(code), pgerrcode.IsTransactionRollback(code):
		return true
	case code == pgerrcode.AdminShutdown,
		code == pgerrcode.CrashShutdown,
		code == pgerrcode.CannotConnectNow:
		return true
	default:
		return false
	}
}

// postgresError returns the SQLSTATE of err, or "" when err did not come
// from the server.
func postgresError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
