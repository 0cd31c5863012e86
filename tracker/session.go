package tracker

import (
	"fmt"
	"net/url"
	"time"

	"bookingtrack/api/config"
	"bookingtrack/api/models"
)

const (
	DefaultLifespanHours = 24
	DefaultTimezone      = "America/New_York"
)

// SessionPolicy bounds a session by elapsed time and by the local calendar day.
type SessionPolicy struct {
	Lifespan time.Duration
	Location *time.Location
}

// NewSessionPolicy builds a policy from a lifespan in hours and an IANA zone name.
func NewSessionPolicy(lifespanHours float64, timezone string) (SessionPolicy, error) {
	if lifespanHours <= 0 {
		return SessionPolicy{}, fmt.Errorf("session lifespan must be positive, got %v hours", lifespanHours)
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return SessionPolicy{}, fmt.Errorf("load session timezone %q: %w", timezone, err)
	}
	return SessionPolicy{
		Lifespan: time.Duration(lifespanHours * float64(time.Hour)),
		Location: loc,
	}, nil
}

// PolicyFromConfig builds the policy from SESSION_LIFESPAN_HOURS and SESSION_TIMEZONE.
func PolicyFromConfig(cfg config.TrackingConfig) (SessionPolicy, error) {
	return NewSessionPolicy(cfg.SessionLifespanHours, cfg.SessionTimezone)
}

// ExpiresAt is min(startedAt+Lifespan, the first local midnight after startedAt).
func (p SessionPolicy) ExpiresAt(startedAt time.Time) time.Time {
	byLifespan := startedAt.Add(p.Lifespan)

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	midnight := nextDayStart(startedAt, loc)

	if midnight.Before(byLifespan) {
		return midnight
	}
	return byLifespan
}

// nextDayStart returns the first instant after t whose date in loc is later
// than t's. Where DST skips local midnight, time.Date normalizes 00:00 to an
// instant that can still fall inside t's day, so that case is searched for.
func nextDayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	day := civilDay(y, m, d)
	later := func(x time.Time) bool {
		return civilDay(x.In(loc).Date()).After(day)
	}

	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	if midnight.After(t) && later(midnight) && !later(midnight.Add(-time.Nanosecond)) {
		return midnight
	}

	// later(lo) is false and later(hi) is true; local noon always exists.
	lo, hi := t, time.Date(y, m, d+1, 12, 0, 0, 0, loc)
	for hi.Sub(lo) > time.Nanosecond {
		mid := lo.Add(hi.Sub(lo) / 2)
		if later(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

func civilDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Expired reports whether s has reached its expiry instant at now.
func (p SessionPolicy) Expired(s models.Session, now time.Time) bool {
	return !now.Before(p.ExpiresAt(s.StartedAt))
}

// SessionManager owns session identity, start time and expiry.
type SessionManager struct {
	state       *State
	policy      SessionPolicy
	attribution *AttributionCapture
	sequence    *SequenceTracker
}

// GetOrRefreshSession returns the live session with lastSeenAt bumped to now,
// or starts a new one. Starting a session captures attribution from query and
// resets the conversion sequence.
func (m *SessionManager) GetOrRefreshSession(now time.Time, query url.Values) (models.Session, bool) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return m.getOrRefresh(now, query)
}

// Current returns the live session without touching it.
func (m *SessionManager) Current(now time.Time) (models.Session, bool) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return m.loadLive(now)
}

func (m *SessionManager) getOrRefresh(now time.Time, query url.Values) (models.Session, bool) {
	if s, ok := m.loadLive(now); ok {
		if now.After(s.LastSeenAt) {
			s.LastSeenAt = now
			m.state.writeJSON(sessionKey, s)
		}
		return s, false
	}

	s := models.Session{
		SessionID:  m.state.newID(),
		StartedAt:  now,
		LastSeenAt: now,
	}
	m.state.writeJSON(sessionKey, s)
	m.attribution.capture(s.SessionID, query, now)
	m.sequence.reset(s.SessionID)
	return s, true
}

// ensure returns the live session untouched, or starts one with no attribution parameters.
func (m *SessionManager) ensure(now time.Time) models.Session {
	if s, ok := m.loadLive(now); ok {
		return s
	}
	s, _ := m.getOrRefresh(now, nil)
	return s
}

func (m *SessionManager) loadLive(now time.Time) (models.Session, bool) {
	var s models.Session
	if !m.state.readJSON(sessionKey, &s) || s.SessionID == "" || s.StartedAt.IsZero() {
		return models.Session{}, false
	}
	if m.policy.Expired(s, now) {
		return models.Session{}, false
	}
	return s, true
}
