package domain

import "time"

// RequestRecord is one observed request/response cycle.
type RequestRecord struct {
	Path         string    `json:"path"`
	Status       int       `json:"status"`
	ResponseTime float64   `json:"response_time"`
	Method       string    `json:"method"`
	Timestamp    time.Time `json:"timestamp"`
}

// IsError reports whether the record counts toward error statistics.
func (r RequestRecord) IsError() bool {
	return r.Status >= 400
}

// Anomaly is a windowed record whose response time deviates from the sample mean.
type Anomaly struct {
	Path         string  `json:"path"`
	ResponseTime float64 `json:"response_time"`
	ZScore       float64 `json:"z_score"`
	Method       string  `json:"method"`
	Status       int     `json:"status"`
}

// Report is the aggregate view served to dashboards and alerting.
// ReportStats is nil when the window holds no records, which keeps the
// percentile fields out of the encoded payload.
type Report struct {
	ReportID      string `json:"report_id"`
	TotalRequests int    `json:"total_requests"`
	Message       string `json:"message,omitempty"`
	*ReportStats
}

// ReportStats holds the populated part of a non-empty report.
type ReportStats struct {
	AvgResponseTime   float64   `json:"avg_response_time"`
	MinResponseTime   float64   `json:"min_response_time"`
	MaxResponseTime   float64   `json:"max_response_time"`
	P50               float64   `json:"p50"`
	P90               float64   `json:"p90"`
	P95               float64   `json:"p95"`
	P99               float64   `json:"p99"`
	ErrorRate         float64   `json:"error_rate"`
	WindowedErrorRate float64   `json:"windowed_error_rate"`
	AnomalyCount      int       `json:"anomaly_count"`
	Anomalies         []Anomaly `json:"anomalies"`
}
