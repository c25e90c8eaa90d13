// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// running multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Run blocks until ctx is cancelled. Examples in this module are the memory
// store's single writer and the rate limiter's idle-client janitor.
type Worker interface {
	Run(ctx context.Context)
}

// Func adapts a function to Worker.
type Func func(ctx context.Context)

// Run calls f(ctx).
func (f Func) Run(ctx context.Context) { f(ctx) }
