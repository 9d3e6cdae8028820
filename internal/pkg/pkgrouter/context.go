package pkgrouter

import "net/http"

// RequestContext is created for every request and discarded once the
// response is written. It is never shared between requests.
type RequestContext struct {
	// Request is the incoming request.
	Request *http.Request
	// Path is the request path with the API prefix removed.
	Path string
	// Key is the route key resolved from Path.
	Key string
	// User is the value returned by the verify hook, if any.
	User any
	// Payload is the decoded body (or query for GET).
	Payload Payload
	// Result is the raw value returned by the handler.
	Result any
	// Response is the encoded response once the encode stage ran.
	Response *Response

	entry entry
}

// Segments returns the path segments after the route key.
func (rc *RequestContext) Segments() []string {
	return Segments(rc.Path)
}
