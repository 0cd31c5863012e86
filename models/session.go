package models

import "time"

type Visitor struct {
	VisitorID string    `json:"visitorId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Session struct {
	SessionID  string    `json:"sessionId"`
	StartedAt  time.Time `json:"startedAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// ConversionSequence numbers funnel events within one session.
type ConversionSequence struct {
	SequenceID  string `json:"sequenceId"`
	SessionID   string `json:"sessionId"`
	NextOrdinal int64  `json:"nextOrdinal"`
}

// Identity is the tracking context a page can attach to outgoing requests.
type Identity struct {
	VisitorID   string              `json:"visitorId"`
	Session     Session             `json:"session"`
	Attribution AttributionSnapshot `json:"attribution"`
}
