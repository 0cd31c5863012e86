package tracker

import (
	"bookingtrack/api/models"
)

// SequenceTracker numbers funnel events within one session, starting at 1.
type SequenceTracker struct {
	state *State
}

// Reset starts a new sequence for sessionID and returns its id.
func (t *SequenceTracker) Reset(sessionID string) string {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	return t.reset(sessionID).SequenceID
}

// NextOrdinal consumes the next ordinal of the session's sequence. A sequence
// left over from another session is discarded and a fresh one started.
func (t *SequenceTracker) NextOrdinal(sessionID string) (string, int64) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	return t.next(sessionID)
}

func (t *SequenceTracker) reset(sessionID string) models.ConversionSequence {
	seq := models.ConversionSequence{
		SequenceID:  t.state.newID(),
		SessionID:   sessionID,
		NextOrdinal: 1,
	}
	t.state.writeJSON(sequenceKey, seq)
	return seq
}

func (t *SequenceTracker) next(sessionID string) (string, int64) {
	var seq models.ConversionSequence
	if !t.state.readJSON(sequenceKey, &seq) || seq.SessionID != sessionID || seq.SequenceID == "" || seq.NextOrdinal < 1 {
		seq = t.reset(sessionID)
	}
	ordinal := seq.NextOrdinal
	seq.NextOrdinal++
	t.state.writeJSON(sequenceKey, seq)
	return seq.SequenceID, ordinal
}
