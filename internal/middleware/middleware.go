// Package middleware contains the HTTP middleware of the password API.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered list of middleware. The first entry is the outermost.
// Chains are values: With and WithIf return extended copies.
type Chain []Middleware

// New creates a chain from middlewares.
func New(middlewares ...Middleware) Chain {
	return append(Chain(nil), middlewares...)
}

// With returns a copy of c with middlewares added innermost.
func (c Chain) With(middlewares ...Middleware) Chain {
	next := make(Chain, 0, len(c)+len(middlewares))
	next = append(next, c...)
	return append(next, middlewares...)
}

// WithIf is With for optional middleware: build runs only when enabled is
// true, so it may depend on state that is nil otherwise.
func (c Chain) WithIf(enabled bool, build func() Middleware) Chain {
	if !enabled {
		return c
	}
	return c.With(build())
}

// Then applies the chain to h. A nil h answers 404; it never falls through to
// http.DefaultServeMux.
func (c Chain) Then(h http.Handler) http.Handler {
	if h == nil {
		h = http.NotFoundHandler()
	}
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}

// Route registers h on mux under pattern, wrapped by the chain.
func (c Chain) Route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, c.Then(h))
}
