package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/request-analytics/internal/domain"
)

// Metrics exposes HTTP and analytics collectors on a Prometheus registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	reportRequests   prometheus.Gauge
	reportErrorRate  prometheus.Gauge
	anomalies        prometheus.Gauge
	reportsGenerated prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// Registration failures are logged and the collector keeps working unregistered.
func NewMetrics(reg prometheus.Registerer, logger *zap.Logger) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of completed HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of requests answered with an error envelope, by error code.",
		}, []string{"code"}),
		reportRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_report_requests",
			Help: "Requests inside the tracker window at the last digest.",
		}),
		reportErrorRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_report_error_rate",
			Help: "Error rate reported by the last digest.",
		}),
		anomalies: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_anomalies",
			Help: "Anomalies found by the last digest.",
		}),
		reportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_reports_generated_total",
			Help: "Total number of digest reports generated.",
		}),
	}

	for name, c := range map[string]prometheus.Collector{
		"http_requests_total":               m.requestsTotal,
		"http_request_duration_seconds":     m.requestDuration,
		"http_errors_total":                 m.errorsTotal,
		"analytics_report_requests":         m.reportRequests,
		"analytics_report_error_rate":       m.reportErrorRate,
		"analytics_anomalies":               m.anomalies,
		"analytics_reports_generated_total": m.reportsGenerated,
	} {
		if err := reg.Register(c); err != nil {
			logger.Warn("failed to register metric", zap.String("metric", name), zap.Error(err))
		}
	}
	return m
}

// RecordRequest counts a completed request and observes its latency.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error envelope by its code.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(code).Inc()
}

// ObserveReport publishes the headline numbers of a generated report.
func (m *Metrics) ObserveReport(report domain.Report) {
	if m == nil {
		return
	}
	m.reportsGenerated.Inc()
	m.reportRequests.Set(float64(report.TotalRequests))
	if report.ReportStats == nil {
		m.reportErrorRate.Set(0)
		m.anomalies.Set(0)
		return
	}
	m.reportErrorRate.Set(report.ErrorRate)
	m.anomalies.Set(float64(report.AnomalyCount))
}
