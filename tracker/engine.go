package tracker

import (
	"time"

	"bookingtrack/api/models"
	"bookingtrack/api/store"
)

// Engine wires the tracking managers around one shared State.
type Engine struct {
	state       *State
	visitors    *VisitorManager
	sessions    *SessionManager
	attribution *AttributionCapture
	sequence    *SequenceTracker
	dispatcher  *Dispatcher
}

// Option customizes the State of a new Engine.
type Option func(*State)

// WithClock replaces time.Now, mostly for tests and replays.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithIDGenerator replaces the UUIDv4 generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *State) { s.newID = newID }
}

// NewEngine builds an engine over kv. kv is wrapped so storage failures
// degrade to in-memory state instead of surfacing. A nil sink discards events.
func NewEngine(kv store.KeyValueStore, sink Sink, policy SessionPolicy, opts ...Option) *Engine {
	if kv == nil {
		kv = store.NewMemoryKVStore()
	}
	state := newState(kv)
	for _, opt := range opts {
		opt(state)
	}

	e := &Engine{state: state}
	e.visitors = &VisitorManager{state: state}
	e.attribution = &AttributionCapture{state: state}
	e.sequence = &SequenceTracker{state: state}
	e.sessions = &SessionManager{
		state:       state,
		policy:      policy,
		attribution: e.attribution,
		sequence:    e.sequence,
	}
	e.dispatcher = &Dispatcher{
		state:       state,
		visitors:    e.visitors,
		sessions:    e.sessions,
		attribution: e.attribution,
		sequence:    e.sequence,
		sink:        sink,
	}
	return e
}

func (e *Engine) Visitors() *VisitorManager { return e.visitors }

func (e *Engine) Sessions() *SessionManager { return e.sessions }

func (e *Engine) Attribution() *AttributionCapture { return e.attribution }

func (e *Engine) Sequence() *SequenceTracker { return e.sequence }

func (e *Engine) Dispatcher() *Dispatcher { return e.dispatcher }

// StorageDegraded reports whether the engine has fallen back to memory.
func (e *Engine) StorageDegraded() bool {
	return e.state.kv.Degraded()
}

// NewNavigationTracker returns a tracker with its own last-path memory, one
// per navigation hook.
func (e *Engine) NewNavigationTracker() *NavigationTracker {
	return &NavigationTracker{engine: e}
}

func (e *Engine) TrackBookingCreated(teamMemberID string) {
	e.dispatcher.Emit(models.EventBookingCreated, Attributes{TeamMemberID: teamMemberID})
}

func (e *Engine) TrackVerificationRequired() {
	e.dispatcher.Emit(models.EventVerificationRequired, Attributes{})
}

func (e *Engine) TrackRegistration(success bool) {
	if success {
		e.dispatcher.Emit(models.EventRegistrationCompleted, Attributes{})
		return
	}
	e.dispatcher.Emit(models.EventRegistrationFailed, Attributes{})
}

// Identity returns the ids a page attaches to booking requests. It opens a
// session when none is live.
func (e *Engine) Identity() models.Identity {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()

	now := e.state.now()
	visitorID := e.visitors.getOrCreate()
	session := e.sessions.ensure(now)
	snap := e.attribution.capture(session.SessionID, nil, now)
	return models.Identity{VisitorID: visitorID, Session: session, Attribution: snap}
}
