// Package server runs the HTTP server together with the background workers
// it depends on.
//
// It owns the process lifecycle: startup, signal handling, and a graceful
// shutdown that drains in-flight requests before the workers are stopped.
package server
