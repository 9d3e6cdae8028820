// Package pkgrouter is the request dispatch engine used by the API.
//
// Routes are keyed by the first path segment and the exact request method.
// Every request flows through a fixed pipeline:
//
//	verify -> decode -> handle -> encode -> sign -> login
//
// Each stage is optional except decode, handle and encode. Failures from any
// stage short-circuit to a single error mapper that turns *pkgerror.Error
// values into plain-text responses with their status, and everything else
// into a 500.
//
// Handlers return any value; the encoder infers a Result once at the
// boundary (text, JSON, boolean, empty or a ready *Response). Handlers that
// want to be explicit can return a Result directly.
//
// The package also carries the shared middleware stack: panic recovery,
// correlation IDs, request logging with masking and Prometheus metrics.
package pkgrouter
