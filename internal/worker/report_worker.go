package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/request-analytics/internal/domain"
	"github.com/spec-kit/request-analytics/internal/events"
	"github.com/spec-kit/request-analytics/internal/observability"
)

// ReportSource produces analytics reports. *analytics.Tracker satisfies it.
type ReportSource interface {
	GenerateReport(path string) domain.Report
}

// ReportWorker periodically builds an all-paths report, exports it as gauges
// and publishes it to the event dispatcher.
type ReportWorker struct {
	source     ReportSource
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	schedule   string
	now        func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewReportWorker creates a worker. An empty schedule disables Start.
func NewReportWorker(source ReportSource, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, schedule string) *ReportWorker {
	return &ReportWorker{
		source:     source,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		schedule:   schedule,
		now:        time.Now,
	}
}

// Start parses the schedule and begins running digests in the background.
func (w *ReportWorker) Start(ctx context.Context) error {
	if w.schedule == "" {
		w.logger.Info("report digest disabled")
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return errors.New("report worker already started")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(w.schedule, func() {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("report digest failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("parse digest schedule %q: %w", w.schedule, err)
	}
	c.Start()
	w.cron = c
	w.logger.Info("report digest started", zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running digest to finish.
func (w *ReportWorker) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	w.logger.Info("report digest stopped")
}

// RunOnce generates a single digest.
func (w *ReportWorker) RunOnce(ctx context.Context) error {
	report := w.source.GenerateReport("")
	w.metrics.ObserveReport(report)

	fields := []zap.Field{
		zap.String("report_id", report.ReportID),
		zap.Int("total_requests", report.TotalRequests),
	}
	if report.ReportStats != nil {
		fields = append(fields,
			zap.Float64("avg_response_time", report.AvgResponseTime),
			zap.Float64("p95", report.P95),
			zap.Float64("error_rate", report.ErrorRate),
			zap.Int("anomaly_count", report.AnomalyCount))
	}
	w.logger.Info("report digest", fields...)

	if w.dispatcher == nil {
		return nil
	}
	at := w.now()
	var errs []error
	if err := w.dispatcher.Publish(ctx, events.NewEvent(events.EventReportGenerated, at, events.ReportGeneratedPayload{Report: report})); err != nil {
		errs = append(errs, err)
	}
	if report.ReportStats != nil && report.AnomalyCount > 0 {
		payload := events.AnomaliesDetectedPayload{
			ReportID:  report.ReportID,
			Count:     report.AnomalyCount,
			Anomalies: report.Anomalies,
		}
		if err := w.dispatcher.Publish(ctx, events.NewEvent(events.EventAnomaliesDetected, at, payload)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
