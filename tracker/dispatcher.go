package tracker

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"bookingtrack/api/models"
)

// Sink receives stamped events. Delivery is best effort; a returned error is
// logged and otherwise ignored.
type Sink interface {
	Send(event models.AnalyticsEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(event models.AnalyticsEvent) error

func (f SinkFunc) Send(event models.AnalyticsEvent) error { return f(event) }

// Attributes are the caller-supplied parts of an event.
type Attributes struct {
	Path         string
	TeamMemberID string
}

// Dispatcher stamps events with the current visitor, session, attribution and
// sequence ordinal and forwards them to the sink. It keeps no per-call state.
type Dispatcher struct {
	state       *State
	visitors    *VisitorManager
	sessions    *SessionManager
	attribution *AttributionCapture
	sequence    *SequenceTracker
	sink        Sink

	failures atomic.Int64
}

// Emit never blocks on delivery and never fails the caller.
func (d *Dispatcher) Emit(eventType models.EventType, attrs Attributes) {
	d.state.mu.Lock()
	event := d.build(d.state.now(), eventType, attrs)
	d.state.mu.Unlock()

	d.send(event)
}

// build assumes the state lock is held. A domain event arriving with no live
// session opens one so every event carries a session id.
func (d *Dispatcher) build(now time.Time, eventType models.EventType, attrs Attributes) models.AnalyticsEvent {
	visitorID := d.visitors.getOrCreate()

	session := d.sessions.ensure(now)
	snap := d.attribution.capture(session.SessionID, nil, now)

	sequenceID, ordinal := d.sequence.next(session.SessionID)

	return models.AnalyticsEvent{
		EventID:         d.state.newID(),
		EventType:       eventType,
		VisitorID:       visitorID,
		SessionID:       session.SessionID,
		Attribution:     snap,
		SequenceID:      sequenceID,
		SequenceOrdinal: ordinal,
		PagePath:        attrs.Path,
		TeamMemberID:    attrs.TeamMemberID,
		Timestamp:       now,
	}
}

func (d *Dispatcher) send(event models.AnalyticsEvent) {
	if d.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logFailure(event, fmt.Errorf("sink panic: %v", r))
		}
	}()
	if err := d.sink.Send(event); err != nil {
		d.logFailure(event, err)
	}
}

func (d *Dispatcher) logFailure(event models.AnalyticsEvent, err error) {
	n := d.failures.Add(1)
	if n == 1 || n%100 == 0 {
		log.Printf("ERROR: Dropped %s event %s (%d dropped so far): %v", event.EventType, event.EventID, n, err)
	}
}

// Failures reports how many events the sink rejected.
func (d *Dispatcher) Failures() int64 {
	return d.failures.Load()
}
