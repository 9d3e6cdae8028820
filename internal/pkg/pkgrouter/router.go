package pkgrouter

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/tclzcja/apiserver/internal/pkg/pkglog"
)

const defaultMaxMultipartMemory = 32 << 20

// Options configures a Router. The zero value is usable.
type Options struct {
	// APIPrefix is stripped from the request path before resolving the key.
	APIPrefix string
	// DefaultHeaders is cloned into every response; DefaultHeaders() when nil.
	DefaultHeaders http.Header
	// AuthVerify is the process-wide hook used by routes registered with WithAuthVerify.
	AuthVerify VerifyHook
	// AuthSign is the process-wide hook used by routes registered with WithAuthSign.
	AuthSign SignHook
	// MaxMultipartMemory bounds in-memory multipart parsing.
	MaxMultipartMemory int64
	// IDGenerator creates correlation IDs when the client sends none.
	IDGenerator Generator
	// Metrics enables the Prometheus middleware when set.
	Metrics *Metrics
}

// Router is an http.Handler holding the route registry and the dispatch
// pipeline. Routes and middleware must be configured before serving.
type Router struct {
	routes     map[string]map[string]entry
	prefix     string
	headers    http.Header
	authVerify VerifyHook
	authSign   SignHook
	maxMemory  int64
	stages     []stage
	mws        []Middleware

	once    sync.Once
	handler http.Handler
}

// NewRouter builds the router with the standard middleware stack.
func NewRouter(opts Options) *Router {
	headers := opts.DefaultHeaders
	if headers == nil {
		headers = DefaultHeaders()
	}

	maxMemory := opts.MaxMultipartMemory
	if maxMemory <= 0 {
		maxMemory = defaultMaxMultipartMemory
	}

	ro := &Router{
		routes:     make(map[string]map[string]entry),
		prefix:     strings.TrimSuffix(opts.APIPrefix, "/"),
		headers:    headers.Clone(),
		authVerify: opts.AuthVerify,
		authSign:   opts.AuthSign,
		maxMemory:  maxMemory,
	}
	ro.stages = defaultStages()

	ro.mws = standardMiddleware(ro, opts)

	return ro
}

// GET registers a GET route and panics on configuration errors.
func (r *Router) GET(path string, h Handler, opts ...RouteOption) {
	r.mustRegister(http.MethodGet, path, h, opts...)
}

// POST registers a POST route and panics on configuration errors.
func (r *Router) POST(path string, h Handler, opts ...RouteOption) {
	r.mustRegister(http.MethodPost, path, h, opts...)
}

// PUT registers a PUT route and panics on configuration errors.
func (r *Router) PUT(path string, h Handler, opts ...RouteOption) {
	r.mustRegister(http.MethodPut, path, h, opts...)
}

// PATCH registers a PATCH route and panics on configuration errors.
func (r *Router) PATCH(path string, h Handler, opts ...RouteOption) {
	r.mustRegister(http.MethodPatch, path, h, opts...)
}

// DELETE registers a DELETE route and panics on configuration errors.
func (r *Router) DELETE(path string, h Handler, opts ...RouteOption) {
	r.mustRegister(http.MethodDelete, path, h, opts...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.once.Do(func() {
		r.handler = Chain(http.HandlerFunc(r.serve), r.mws...)
	})
	r.handler.ServeHTTP(w, req)
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request) {
	r.dispatch(req.Context(), req).write(w)
}

func (r *Router) stripPrefix(path string) string {
	if r.prefix == "" {
		return path
	}
	if path == r.prefix {
		return "/"
	}
	if strings.HasPrefix(path, r.prefix+"/") {
		return path[len(r.prefix):]
	}
	return path
}

func (r *Router) routeKey(req *http.Request) string {
	return RouteKey(r.stripPrefix(req.URL.Path))
}

// dispatch resolves and executes one request. It always returns a response.
func (r *Router) dispatch(ctx context.Context, req *http.Request) *Response {
	if req.Method == http.MethodOptions {
		return r.newResponse(http.StatusOK, "")
	}

	path := r.stripPrefix(req.URL.Path)
	rc := &RequestContext{Request: req, Path: path, Key: RouteKey(path)}
	ctx = pkglog.WithRoute(ctx, rc.Key)

	e, err := r.lookup(rc.Key, req.Method)
	if err != nil {
		return r.mapError(ctx, err)
	}
	rc.entry = e

	for _, st := range r.stages {
		if err := st.run(ctx, r, rc); err != nil {
			return r.mapError(ctx, err)
		}
	}

	return rc.Response
}
