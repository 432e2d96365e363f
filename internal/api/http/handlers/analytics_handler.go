package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-analytics/internal/analytics"
	"github.com/spec-kit/request-analytics/internal/api/dto"
	"github.com/spec-kit/request-analytics/internal/observability"
	apperrors "github.com/spec-kit/request-analytics/pkg/util/errorutil"
)

// AnalyticsHandler exposes the request tracker to operators.
type AnalyticsHandler struct {
	tracker    *analytics.Tracker
	metrics    *observability.Metrics
	zThreshold float64
}

// NewAnalyticsHandler constructs handler. zThreshold is used when the
// anomalies query omits z.
func NewAnalyticsHandler(tracker *analytics.Tracker, metrics *observability.Metrics, zThreshold float64) *AnalyticsHandler {
	return &AnalyticsHandler{tracker: tracker, metrics: metrics, zThreshold: zThreshold}
}

// Report handles GET /analytics/report?path=.
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	path := c.Query("path")
	report := h.tracker.GenerateReport(path)
	if path == "" {
		h.metrics.ObserveReport(report)
	}
	return c.JSON(report)
}

// Anomalies handles GET /analytics/anomalies?path=&z=.
func (h *AnalyticsHandler) Anomalies(c *fiber.Ctx) error {
	z := h.zThreshold
	if raw := c.Query("z"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return apperrors.NewBadRequest("z must be a non-negative number")
		}
		z = parsed
	}

	path := c.Query("path")
	anomalies := h.tracker.DetectAnomalies(path, z)
	return c.JSON(dto.AnomaliesResponse{
		Path:       path,
		ZThreshold: z,
		Count:      len(anomalies),
		Anomalies:  anomalies,
	})
}

// Errors handles GET /analytics/errors.
func (h *AnalyticsHandler) Errors(c *fiber.Ctx) error {
	return c.JSON(dto.ErrorCountsResponse{ErrorCounts: h.tracker.ErrorCounts()})
}
