// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package pipeline composes request filters into an ordered chain.
//
// A Chain is a left fold over its filters: each filter sees the Exchange
// produced by the previous one and either lets it continue, marks it handled
// (a response has been written), or fails it with an error. The first error
// stops the fold and is handed to the chain's error stage; nothing after it
// runs. Panics raised inside filters or the terminal handler are recovered
// and delivered to the error stage as *PanicError.
package pipeline

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Outcome tells the chain whether to keep going.
type Outcome int

const (
	// Continue passes the exchange on to the next filter.
	Continue Outcome = iota
	// Handled stops the chain; the filter has written the response.
	Handled
)

// Exchange is the per-request state threaded through a chain. Filters may
// replace Writer and Request.
type Exchange struct {
	Writer  http.ResponseWriter
	Request *http.Request

	deferred []func()
}

// Defer registers fn to run after the chain and its terminal handler have
// finished, whether they succeeded, failed or panicked. Deferred functions
// run in reverse registration order.
func (x *Exchange) Defer(fn func()) {
	x.deferred = append(x.deferred, fn)
}

func (x *Exchange) runDeferred() {
	for i := len(x.deferred) - 1; i >= 0; i-- {
		x.deferred[i]()
	}
}

// Filter is one stage of the ingress stack.
type Filter interface {
	Name() string
	Apply(x *Exchange) (Outcome, error)
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(x *Exchange) (Outcome, error)

type namedFilter struct {
	name string
	fn   FilterFunc
}

func (f namedFilter) Name() string                       { return f.name }
func (f namedFilter) Apply(x *Exchange) (Outcome, error) { return f.fn(x) }

// Named returns a Filter called name that runs fn.
func Named(name string, fn FilterFunc) Filter {
	return namedFilter{name: name, fn: fn}
}

// FromMiddleware adapts a standard net/http middleware that only inspects or
// decorates the request before calling next. If the middleware calls next,
// the exchange continues with the request (and writer) it passed along;
// otherwise the middleware is assumed to have responded and the exchange is
// Handled.
func FromMiddleware(name string, mw func(http.Handler) http.Handler) Filter {
	return Named(name, func(x *Exchange) (Outcome, error) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			x.Writer = w
			x.Request = r
		})
		mw(next).ServeHTTP(x.Writer, x.Request)
		if called {
			return Continue, nil
		}
		return Handled, nil
	})
}

// ErrorHandler is the single sink for failures raised by a chain.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Chain is an ordered list of filters with an error stage.
type Chain struct {
	filters []Filter
	onError ErrorHandler
}

// New returns a chain that sends failures to onError.
func New(onError ErrorHandler, filters ...Filter) *Chain {
	return &Chain{filters: filters, onError: onError}
}

// Use appends filters to the chain.
func (c *Chain) Use(filters ...Filter) *Chain {
	c.filters = append(c.filters, filters...)
	return c
}

// Names lists the filters in application order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return names
}

// Then returns an http.Handler that folds the filters over each request and
// hands the result to terminal.
func (c *Chain) Then(terminal http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		x := &Exchange{Writer: w, Request: r}
		defer x.runDeferred()
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				c.onError(x.Writer, x.Request, &PanicError{Value: rec, Stack: string(debug.Stack())})
			}
		}()

		for _, f := range c.filters {
			outcome, err := f.Apply(x)
			if err != nil {
				c.onError(x.Writer, x.Request, err)
				return
			}
			if outcome == Handled {
				return
			}
		}
		terminal.ServeHTTP(x.Writer, x.Request)
	})
}

// PanicError is a recovered panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StackTrace returns the goroutine stack captured at recovery.
func (e *PanicError) StackTrace() string { return e.Stack }

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
