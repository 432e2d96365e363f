package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/request-analytics/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportGenerated   EventType = "report_generated"
	EventAnomaliesDetected EventType = "anomalies_detected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a payload with a fresh id and the given time.
func NewEvent(eventType EventType, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at,
		Payload:   payload,
	}
}

// ReportGeneratedPayload payload.
type ReportGeneratedPayload struct {
	Report domain.Report `json:"report"`
}

// AnomaliesDetectedPayload payload.
type AnomaliesDetectedPayload struct {
	ReportID  string           `json:"report_id"`
	Count     int              `json:"count"`
	Anomalies []domain.Anomaly `json:"anomalies"`
}
