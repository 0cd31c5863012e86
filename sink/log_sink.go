package sink

import (
	"log"

	"bookingtrack/api/models"
)

// LogSink writes each event to the standard logger.
type LogSink struct{}

func (LogSink) Send(event models.AnalyticsEvent) error {
	log.Printf("track: %s visitor=%s session=%s seq=%s#%d source=%s path=%q team=%q",
		event.EventType, event.VisitorID, event.SessionID, event.SequenceID, event.SequenceOrdinal,
		event.Attribution.Source, event.PagePath, event.TeamMemberID)
	return nil
}
