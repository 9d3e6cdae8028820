package pkgrouter

import "net/http"

// Middleware wraps the dispatcher. It runs outside the pipeline, so it sees
// every request including OPTIONS, 404 and 405.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so that mws[0] is the outermost layer.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// standardMiddleware is the stack every Router starts with, outermost first.
func standardMiddleware(r *Router, opts Options) []Middleware {
	mws := []Middleware{
		middlewareRecoverer(r.headers),
		middlewareCorrelationID(opts.IDGenerator),
		middlewareLogging(r.routeKey),
	}
	if opts.Metrics != nil {
		mws = append(mws, middlewareMetrics(opts.Metrics, r.metricRoute))
	}
	return mws
}

// Use appends middleware inside the standard stack. It must be called
// before the first request is served.
func (r *Router) Use(mws ...Middleware) {
	r.mws = append(r.mws, mws...)
}
