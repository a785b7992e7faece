// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the HTTP and domain collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	ReqTotal         *prometheus.CounterVec
	ReqDur           *prometheus.HistogramVec
	Breakdowns       *prometheus.CounterVec
	SessionMutations *prometheus.CounterVec
	Exports          *prometheus.CounterVec
	Findings         *prometheus.CounterVec
}

// New creates the collectors under namespace and registers them with reg.
// A fresh registry is used when reg is nil.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		Breakdowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_breakdowns_total",
			Help:      "Count of stateless breakdown computations by VAT type and result.",
		}, []string{"vat_type", "result"}),
		SessionMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_mutations_total",
			Help:      "Count of filing session mutations by kind and result.",
		}, []string{"kind", "result"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_exports_total",
			Help:      "Count of report exports by format and destination.",
		}, []string{"format", "destination"}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_findings_total",
			Help:      "Count of reconciliation findings raised on import by rule.",
		}, []string{"rule"}),
	}
	reg.MustRegister(m.ReqTotal, m.ReqDur, m.Breakdowns, m.SessionMutations, m.Exports, m.Findings)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveBreakdown records one breakdown computation.
func (m *Metrics) ObserveBreakdown(vatType string, err error) {
	if m == nil {
		return
	}
	m.Breakdowns.WithLabelValues(vatType, result(err)).Inc()
}

// ObserveMutation records one session mutation.
func (m *Metrics) ObserveMutation(kind string, err error) {
	if m == nil {
		return
	}
	m.SessionMutations.WithLabelValues(kind, result(err)).Inc()
}

// ObserveExport records a rendered report.
func (m *Metrics) ObserveExport(format, destination string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format, destination).Inc()
}

// ObserveFinding records a reconciliation finding.
func (m *Metrics) ObserveFinding(rule string) {
	if m == nil {
		return
	}
	m.Findings.WithLabelValues(rule).Inc()
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ReqTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.ReqDur.WithLabelValues(c.Request.Method, route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.AbortWithStatus(http.StatusNotFound)
		}
	}
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
