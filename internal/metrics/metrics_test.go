package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jedlsf/buwis-friend/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestObserve(t *testing.T) {
	m := metrics.New("buwis", prometheus.NewRegistry())

	m.ObserveBreakdown("VAT", nil)
	m.ObserveBreakdown("VAT", errors.New("bad rate"))
	m.ObserveMutation("add_invoices", nil)
	m.ObserveExport("csv", "download")
	m.ObserveFinding("recon.vat")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Breakdowns.WithLabelValues("VAT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Breakdowns.WithLabelValues("VAT", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionMutations.WithLabelValues("add_invoices", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("csv", "download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Findings.WithLabelValues("recon.vat")))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveBreakdown("VAT", nil)
		m.ObserveMutation("clear", nil)
		m.ObserveExport("xlsx", "s3")
		m.ObserveFinding("recon.sales")
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := metrics.New("buwis", nil)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "buwis_http_requests_total")
}
