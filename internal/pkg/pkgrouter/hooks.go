package pkgrouter

import (
	"context"
	"net/http"
)

// Handler is the application-style handler used by this router.
//
// It receives the decoded payload and the per-request context and returns a
// value for the encoder, or an error for the error mapper.
type Handler func(ctx context.Context, payload Payload, rc *RequestContext) (any, error)

// VerifyHook authenticates a request before its body is decoded. The
// returned value is exposed to the handler and the sign hook as the user.
type VerifyHook func(ctx context.Context, r *http.Request) (any, error)

// SignHook runs after encoding with the final response and the verify result.
type SignHook func(ctx context.Context, resp *Response, user any) error

// LoginHook runs after SignHook with the final response and the raw value
// the handler returned.
type LoginHook func(ctx context.Context, resp *Response, result any) error

// RouteOption attaches optional hooks to a route at registration time.
type RouteOption func(*routeConfig)

type routeConfig struct {
	verify        VerifyHook
	sign          SignHook
	login         LoginHook
	useAuthVerify bool
	useAuthSign   bool
	invalid       []string
}

// WithVerify runs h before the handler.
func WithVerify(h VerifyHook) RouteOption {
	return func(c *routeConfig) {
		if h == nil {
			c.invalid = append(c.invalid, "verify")
			return
		}
		c.verify = h
	}
}

// WithSign runs h on the encoded response.
func WithSign(h SignHook) RouteOption {
	return func(c *routeConfig) {
		if h == nil {
			c.invalid = append(c.invalid, "sign")
			return
		}
		c.sign = h
	}
}

// WithLogin runs h on the encoded response after any sign hook.
func WithLogin(h LoginHook) RouteOption {
	return func(c *routeConfig) {
		if h == nil {
			c.invalid = append(c.invalid, "login")
			return
		}
		c.login = h
	}
}

// WithAuthVerify opts the route into the router-wide Options.AuthVerify hook.
func WithAuthVerify() RouteOption {
	return func(c *routeConfig) {
		c.useAuthVerify = true
	}
}

// WithAuthSign opts the route into the router-wide Options.AuthSign hook.
func WithAuthSign() RouteOption {
	return func(c *routeConfig) {
		c.useAuthSign = true
	}
}
