package pkgrouter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
)

type entry struct {
	handler Handler
	verify  VerifyHook
	sign    SignHook
	login   LoginHook
}

// Route identifies one registered (key, method) pair.
type Route struct {
	Key    string
	Method string
}

// Register inserts or replaces the entry for (path, method). The last
// registration for a pair wins.
//
// path must be a single segment ("/notes", "notes" or "/"). Invalid hooks,
// a nil handler, or an auth option without the matching router-wide hook
// return a configuration error; callers are expected to abort startup.
func (r *Router) Register(path, method string, h Handler, opts ...RouteOption) error {
	key, err := normalizeKey(path)
	if err != nil {
		return err
	}
	if method == "" {
		return pkgerror.NewConfiguration("route " + key + ": method is required")
	}
	if h == nil {
		return pkgerror.NewConfiguration("route " + method + " " + key + ": handler is required")
	}

	cfg := routeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.invalid) > 0 {
		return pkgerror.NewConfiguration(fmt.Sprintf(
			"route %s %s: %s hook must be a function", method, key, strings.Join(cfg.invalid, ", "),
		))
	}

	e := entry{handler: h, verify: cfg.verify, sign: cfg.sign, login: cfg.login}

	if cfg.useAuthVerify {
		if r.authVerify == nil {
			return pkgerror.NewConfiguration("route " + method + " " + key + ": auth verify requested but not configured")
		}
		if e.verify != nil {
			return pkgerror.NewConfiguration("route " + method + " " + key + ": both verify and auth verify given")
		}
		e.verify = r.authVerify
	}
	if cfg.useAuthSign {
		if r.authSign == nil {
			return pkgerror.NewConfiguration("route " + method + " " + key + ": auth sign requested but not configured")
		}
		if e.sign != nil {
			return pkgerror.NewConfiguration("route " + method + " " + key + ": both sign and auth sign given")
		}
		e.sign = r.authSign
	}

	methods, ok := r.routes[key]
	if !ok {
		methods = make(map[string]entry)
		r.routes[key] = methods
	}
	methods[method] = e

	return nil
}

func (r *Router) mustRegister(method, path string, h Handler, opts ...RouteOption) {
	if err := r.Register(path, method, h, opts...); err != nil {
		panic(err)
	}
}

// Routes returns the registered pairs sorted by key then method.
func (r *Router) Routes() []Route {
	routes := make([]Route, 0, len(r.routes))
	for key, methods := range r.routes {
		for method := range methods {
			routes = append(routes, Route{Key: key, Method: method})
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Key != routes[j].Key {
			return routes[i].Key < routes[j].Key
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

func (r *Router) lookup(key, method string) (entry, error) {
	methods, ok := r.routes[key]
	if !ok {
		return entry{}, pkgerror.NewNotFound(key)
	}
	e, ok := methods[method]
	if !ok {
		return entry{}, pkgerror.NewMethodNotAllowed(key, method)
	}
	return e, nil
}

func normalizeKey(path string) (string, error) {
	key := strings.TrimSpace(path)
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	if strings.Contains(key[1:], "/") {
		return "", pkgerror.NewConfiguration("route " + path + ": only a single path segment is allowed")
	}
	return key, nil
}

// RouteKey returns the first "/"-delimited segment of path, always prefixed
// with "/". Deeper segments are ignored.
func RouteKey(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

// Segments splits path into its non-empty segments after the route key, for
// handlers that need deeper parts of the URL.
func Segments(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) <= 1 {
		return nil
	}
	out := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
