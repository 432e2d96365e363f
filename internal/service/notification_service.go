package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/request-analytics/internal/events"
)

// NotificationService turns analytics events into operator notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	webhookURL string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, webhookURL string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		webhookURL: strings.TrimSpace(webhookURL),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReportGenerated, n.handleReportGenerated)
	n.dispatcher.Subscribe(events.EventAnomaliesDetected, n.handleAnomaliesDetected)
}

func (n *NotificationService) handleReportGenerated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportGeneratedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("ReportGenerated",
		zap.String("event_id", event.ID),
		zap.String("report_id", payload.Report.ReportID),
		zap.Int("total_requests", payload.Report.TotalRequests))
	return nil
}

func (n *NotificationService) handleAnomaliesDetected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AnomaliesDetectedPayload)
	if !ok {
		return nil
	}
	n.logger.Warn("AnomaliesDetected",
		zap.String("event_id", event.ID),
		zap.String("report_id", payload.ReportID),
		zap.Int("anomaly_count", payload.Count),
		zap.Any("anomalies", payload.Anomalies))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if n.webhookURL == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.webhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
