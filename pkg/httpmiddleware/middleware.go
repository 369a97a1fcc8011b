// Package httpmiddleware provides composable net/http middleware used by the
// API server: panic recovery, request identification, CORS, rate limiting,
// logging, and tracing.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware becomes the outermost
// one, so requests pass through them in the order given.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
