package pkglog

import "context"

type ctxKey int

const (
	ctxKeyCorrelationID ctxKey = iota
	ctxKeyRoute
)

// WithCorrelationID stores cid in ctx. An empty cid leaves ctx unchanged.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	if cid == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyCorrelationID, cid)
}

// CorrelationID returns the correlation id set by WithCorrelationID.
func CorrelationID(ctx context.Context) (string, bool) {
	cid, ok := ctx.Value(ctxKeyCorrelationID).(string)
	return cid, ok
}

// WithRoute stores the dispatched route key so records logged while
// handling a request carry it.
func WithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRoute, route)
}

func Route(ctx context.Context) (string, bool) {
	route, ok := ctx.Value(ctxKeyRoute).(string)
	return route, ok
}
