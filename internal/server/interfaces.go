package server

import "context"

// Server defines the lifecycle contract of the application server.
//
// RunServer blocks until a termination signal arrives and everything has
// been shut down. Shutdown may be called from another goroutine to stop a
// running server early.
type Server interface {
	// RunServer starts serving requests and blocks until the server stops.
	RunServer()

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown(ctx context.Context)
}
