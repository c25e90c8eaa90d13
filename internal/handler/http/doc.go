// Package http implements the HTTP transport layer of the application.
//
// Every request runs through an ordered pipeline of filters (trace id, CORS,
// compression, static assets, security headers, request logging, rate
// limiting, the webhook bypass, the body governor and the sanitizers)
// before the dispatcher hands it to the router mounted at the longest
// matching prefix. Handlers return errors instead of writing them; all
// failures end in a single error stage that normalizes them and lets the
// configured disclosure policy write the response.
package http
