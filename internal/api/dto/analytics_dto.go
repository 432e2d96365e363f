package dto

import "github.com/spec-kit/request-analytics/internal/domain"

// AnomaliesResponse wraps an ad-hoc anomaly scan.
type AnomaliesResponse struct {
	Path       string           `json:"path"`
	ZThreshold float64          `json:"z_threshold"`
	Count      int              `json:"count"`
	Anomalies  []domain.Anomaly `json:"anomalies"`
}

// ErrorCountsResponse lists error counters keyed "status:path".
type ErrorCountsResponse struct {
	ErrorCounts map[string]int `json:"error_counts"`
}
