package pkgrouter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tclzcja/apiserver/internal/pkg/pkglog"
)

type staticGenerator struct {
	value string
	calls int
}

func (g *staticGenerator) Generate() string {
	g.calls++
	return g.value
}

func TestMiddlewareCorrelationID(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		gen       *staticGenerator
		want      string
		wantCalls int
	}{
		{
			name:    "correlation header wins",
			headers: map[string]string{HeaderCorrelationID: "cid-1", HeaderRequestID: "rid-1"},
			gen:     &staticGenerator{value: "generated"},
			want:    "cid-1",
		},
		{
			name:    "request id fallback",
			headers: map[string]string{HeaderRequestID: " rid-1 "},
			gen:     &staticGenerator{value: "generated"},
			want:    "rid-1",
		},
		{
			name:      "generated when missing",
			gen:       &staticGenerator{value: "generated"},
			want:      "generated",
			wantCalls: 1,
		},
		{
			name:      "overlong id is replaced",
			headers:   map[string]string{HeaderCorrelationID: strings.Repeat("a", maxCorrelationIDLen+1)},
			gen:       &staticGenerator{value: "generated"},
			want:      "generated",
			wantCalls: 1,
		},
		{
			name:    "unprintable id falls back to request id",
			headers: map[string]string{HeaderCorrelationID: "a\x01b", HeaderRequestID: "rid-2"},
			gen:     &staticGenerator{value: "generated"},
			want:    "rid-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCID string
			var gotOK bool
			h := middlewareCorrelationID(tt.gen)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCID, gotOK = pkglog.CorrelationID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.True(t, gotOK)
			assert.Equal(t, tt.want, gotCID)
			assert.Equal(t, tt.want, rec.Header().Get(HeaderCorrelationID))
			assert.Equal(t, tt.wantCalls, tt.gen.calls)
		})
	}
}

func TestMiddlewareCorrelationIDWithoutGenerator(t *testing.T) {
	var gotOK bool
	h := middlewareCorrelationID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotOK = pkglog.CorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))

	assert.False(t, gotOK)
	assert.Empty(t, rec.Header().Get(HeaderCorrelationID))
}
