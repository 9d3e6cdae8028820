package pkgrouter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const maxLoggedBodyBytes = 64 * 1024

//nolint:gochecknoglobals // global for fast reuse
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"new_password":     {},
	"current_password": {},
	"access_token":     {},
	"refresh_token":    {},
	"authorization":    {},
	"cookie":           {},
	"token":            {},
	"secret":           {},
}

func maskHeaders(headers http.Header) http.Header {
	result := headers.Clone()
	for key := range result {
		if _, found := sensitiveKeys[strings.ToLower(key)]; found {
			result.Set(key, "***")
		}
	}
	return result
}

func maskData(v any) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if _, found := sensitiveKeys[strings.ToLower(k)]; found {
				masked[k] = "***"
			} else {
				masked[k] = maskData(v2)
			}
		}
		return masked
	case []any:
		res := make([]any, len(val))
		for i, v2 := range val {
			res[i] = maskData(v2)
		}
		return res
	default:
		return v
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   *bytes.Buffer
	capped bool
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if w.body != nil && !w.capped && len(p) > 0 {
		remaining := maxLoggedBodyBytes - w.body.Len()
		if remaining > 0 {
			if len(p) > remaining {
				w.body.Write(p[:remaining])
				w.capped = true
			} else {
				w.body.Write(p)
			}
		} else {
			w.capped = true
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // it use dynamic error
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

type peekedBody struct {
	io.Reader
	io.Closer
}

// peekBody reads at most maxLoggedBodyBytes+1 bytes of the request body for
// logging and puts them back in front of the unread remainder. A read error
// is replayed to the next reader instead of being swallowed.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	rest := io.Reader(r.Body)
	if err != nil {
		rest = errReader{err: err}
	}
	r.Body = peekedBody{Reader: io.MultiReader(bytes.NewReader(buf), rest), Closer: r.Body}

	return buf
}

func parseAndMaskBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if len(body) > maxLoggedBodyBytes {
		return "<large body omitted>"
	}

	switch mediaType(contentType) {
	case mediaMultipart:
		return "<multipart body omitted>"
	case "application/x-www-form-urlencoded":
		if values, err := url.ParseQuery(string(body)); err == nil {
			return maskValues(values)
		}
	}

	var jsonBody any
	if err := json.Unmarshal(body, &jsonBody); err == nil {
		return maskData(jsonBody)
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	return string(body)
}

func maskValues(values url.Values) map[string]any {
	masked := make(map[string]any, len(values))
	for k, v := range values {
		if _, found := sensitiveKeys[strings.ToLower(k)]; found {
			masked[k] = "***"
			continue
		}
		if len(v) == 1 {
			masked[k] = v[0]
		} else {
			masked[k] = v
		}
	}
	return masked
}

func parseResponseBody(rec *statusRecorder) any {
	if rec.body == nil || rec.body.Len() == 0 {
		return nil
	}

	var respBody any
	var respJSON any
	if err := json.Unmarshal(rec.body.Bytes(), &respJSON); err == nil {
		respBody = maskData(respJSON)
	} else if utf8.Valid(rec.body.Bytes()) {
		respBody = rec.body.String()
	} else {
		respBody = "<binary body omitted>"
	}

	if rec.capped {
		return map[string]any{
			"body":      respBody,
			"truncated": true,
		}
	}
	return respBody
}

// middlewareLogging logs each request and its response keyed by route key.
// Preflight requests are not logged.
func middlewareLogging(routeOf func(*http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			route := routeOf(r)
			start := time.Now()

			contentType := r.Header.Get("Content-Type")
			var body any
			if mediaType(contentType) == mediaMultipart {
				body = "<multipart body omitted>"
			} else {
				body = parseAndMaskBody(contentType, peekBody(r))
			}

			slog.InfoContext(
				r.Context(),
				"request received",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"headers", maskHeaders(r.Header),
				"body_bytes", r.ContentLength,
				"body", body,
			)

			rec := &statusRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			slog.Log(
				r.Context(),
				level,
				"response sent",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", time.Since(start).Milliseconds(),
				"headers", maskHeaders(rec.Header()),
				"body", parseResponseBody(rec),
			)
		})
	}
}
