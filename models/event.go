// api/models/event.go
package models

import (
	"time"
)

// EventType names a tracked occurrence.
type EventType string

const (
	EventPageVisit             EventType = "page_visit"
	EventBookingCreated        EventType = "booking_created"
	EventVerificationRequired  EventType = "verification_required"
	EventRegistrationCompleted EventType = "registration_completed"
	EventRegistrationFailed    EventType = "registration_failed"
)

// FunnelSteps is the order of the booking funnel used by the funnel report.
var FunnelSteps = []EventType{
	EventPageVisit,
	EventBookingCreated,
	EventVerificationRequired,
	EventRegistrationCompleted,
}

func (t EventType) Valid() bool {
	switch t {
	case EventPageVisit, EventBookingCreated, EventVerificationRequired,
		EventRegistrationCompleted, EventRegistrationFailed:
		return true
	default:
		return false
	}
}

// AnalyticsEvent is the normalized event record pushed to the collector.
// UserAgent and IPHash are stamped by the collector, never by the engine.
type AnalyticsEvent struct {
	EventID         string              `json:"eventId"`
	EventType       EventType           `json:"eventType"`
	VisitorID       string              `json:"visitorId"`
	SessionID       string              `json:"sessionId"`
	Attribution     AttributionSnapshot `json:"attribution"`
	SequenceID      string              `json:"sequenceId"`
	SequenceOrdinal int64               `json:"sequenceOrdinal"`
	PagePath        string              `json:"pagePath,omitempty"`
	TeamMemberID    string              `json:"teamMemberId,omitempty"`
	Timestamp       time.Time           `json:"timestamp"`
	UserAgent       string              `json:"userAgent,omitempty"`
	IPHash          string              `json:"ipHash,omitempty"`
}

type TopPathResult struct {
	PagePath string `json:"pagePath"`
	Count    uint64 `json:"count"`
}

type TrafficSourceResult struct {
	Source   TrafficSource `json:"source"`
	Sessions uint64        `json:"sessions"`
}

type FunnelStepResult struct {
	EventType EventType `json:"eventType"`
	Sessions  uint64    `json:"sessions"`
}
