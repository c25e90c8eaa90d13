package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by DocumentStore implementations. Callers should
// use [errors.Is] to match against these values.
var (
	// ErrDocumentNotFound is returned when a lookup, update or delete targets
	// an identifier that does not exist in the collection.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUnknownCollection is returned when a collection name is not one the
	// store was configured with.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrStoreClosed is returned by writes issued after the single writer of
	// the memory store has stopped.
	ErrStoreClosed = errors.New("document store is closed")
)

// Low-level SQL errors, wrapped around the driver error so that the original
// shape stays reachable through errors.As.
var (
	ErrBuildingSQLQuery     = errors.New("error building sql query")
	ErrExecutingQuery       = errors.New("error executing sql query")
	ErrBeginningTransaction = errors.New("failed to begin transaction")
	ErrCommitingTransaction = errors.New("failed to commit transaction")
	ErrScanningRow          = errors.New("failed to scan document row")
	ErrDecodingDocument     = errors.New("failed to decode document body")
)

// CastError reports that a lookup key or query value could not be converted
// to the type the store expects (e.g. a non-numeric identifier).
type CastError struct {
	// Path is the field the value was meant for.
	Path string
	// Value is the raw value as received.
	Value string
	// Err is the conversion error, if any.
	Err error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast to %s failed for value %q", e.Path, e.Value)
}

func (e *CastError) Unwrap() error { return e.Err }

// DuplicateKeyError reports a uniqueness-constraint violation.
type DuplicateKeyError struct {
	Collection string
	// KeyValue maps the unique field(s) to the offending value(s).
	KeyValue map[string]any
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key error collection: %s dup key: %v", e.Collection, e.KeyValue)
}
