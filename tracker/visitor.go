package tracker

import (
	"bookingtrack/api/models"
)

// VisitorManager owns the durable visitor identifier.
type VisitorManager struct {
	state *State
}

// GetOrCreateVisitorID returns the stored visitor id, creating it on first use.
// Two engines racing on an empty store may each write an id; the last write wins.
func (m *VisitorManager) GetOrCreateVisitorID() string {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return m.getOrCreate()
}

func (m *VisitorManager) getOrCreate() string {
	if v, ok := m.load(); ok {
		return v.VisitorID
	}

	candidate := models.Visitor{VisitorID: m.state.newID(), CreatedAt: m.state.now()}

	// Another engine on the same store may have written while we generated.
	if v, ok := m.load(); ok {
		return v.VisitorID
	}
	m.state.writeJSON(visitorKey, candidate)
	return candidate.VisitorID
}

func (m *VisitorManager) load() (models.Visitor, bool) {
	var v models.Visitor
	if !m.state.readJSON(visitorKey, &v) || v.VisitorID == "" {
		return models.Visitor{}, false
	}
	return v, true
}
