package pkgrouter

import (
	"net/http"
	"strings"

	"github.com/tclzcja/apiserver/internal/pkg/pkglog"
)

// Generator produces correlation ids for requests that arrive without one.
type Generator interface {
	Generate() string
}

const (
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is read when HeaderCorrelationID is absent; proxies
	// commonly set it.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// normalizeCID returns v without surrounding blanks, or "" when it is too
// long or not printable ASCII. An unusable id is replaced, not truncated.
func normalizeCID(v string) string {
	v = strings.TrimSpace(v)

	if v == "" || len(v) > maxCorrelationIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 || v[i] > 0x7e {
			return ""
		}
	}
	return v
}

func incomingCID(r *http.Request) string {
	for _, name := range [...]string{HeaderCorrelationID, HeaderRequestID} {
		if cid := normalizeCID(r.Header.Get(name)); cid != "" {
			return cid
		}
	}
	return ""
}

// middlewareCorrelationID puts the request's correlation id into the context
// for logging and echoes it in the response header.
func middlewareCorrelationID(gen Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := incomingCID(r)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(pkglog.WithCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
