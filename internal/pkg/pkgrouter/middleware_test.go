package pkgrouter

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestRouterUseAppendsMiddleware(t *testing.T) {
	r := NewRouter(Options{})
	r.GET("/v", valueHandler("ok"))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Used", "1")
			next.ServeHTTP(w, req)
		})
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/v", nil))

	assert.Equal(t, "1", rec.Header().Get("X-Used"))
}

func TestRecovererPassesAbortHandler(t *testing.T) {
	h := middlewareRecoverer(DefaultHeaders())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	r := NewRouter(Options{Metrics: m})
	r.GET("/notes", valueHandler("ok"))

	serve(r, httptest.NewRequest(http.MethodGet, "/notes/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/notes", nil))
	serve(r, httptest.NewRequest(http.MethodPost, "/notes", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/notes", http.MethodGet, "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/notes", http.MethodPost, "405")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("unmatched", http.MethodGet, "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestDuration))
}

func TestMetricsMiddlewareBoundsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	r := NewRouter(Options{Metrics: m})
	r.GET("/notes", valueHandler("ok"))

	for i := range 50 {
		serve(r, httptest.NewRequest(http.MethodOptions, fmt.Sprintf("/junk%d", i), nil))
	}
	serve(r, httptest.NewRequest("BREW", "/notes", nil))
	serve(r, httptest.NewRequest("PROPFIND", "/notes", nil))
	serve(r, httptest.NewRequest(http.MethodOptions, "/notes", nil))

	assert.Equal(t, 3, testutil.CollectAndCount(m.requestsTotal))
	assert.Equal(t, float64(50), testutil.ToFloat64(m.requestsTotal.WithLabelValues("unmatched", http.MethodOptions, "200")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/notes", "other", "405")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/notes", http.MethodOptions, "200")))
}

func TestMetricsMiddleware_Gather(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRouter(Options{APIPrefix: "/api", Metrics: NewMetrics("test", reg)})
	r.DELETE("/notes", valueHandler(nil))

	serve(r, httptest.NewRequest(http.MethodDelete, "/api/notes/7", nil))

	families, err := reg.Gather()
	require.NoError(t, err)

	var total *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "test_requests_total" {
			total = mf
		}
	}
	require.NotNil(t, total)
	require.Len(t, total.GetMetric(), 1)

	labels := map[string]string{}
	for _, lp := range total.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, map[string]string{"route": "/notes", "method": http.MethodDelete, "status": "201"}, labels)
	assert.Equal(t, float64(1), total.GetMetric()[0].GetCounter().GetValue())
}
