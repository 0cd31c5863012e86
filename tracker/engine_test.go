package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingtrack/api/models"
	"bookingtrack/api/store"
)

func TestNavigationDedupByPath(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, newYork(t)))
	nav := e.NewNavigationTracker()

	assert.True(t, nav.OnNavigationChanged("/book", ""))
	assert.False(t, nav.OnNavigationChanged("/book", ""), "re-render of the same page")
	assert.False(t, nav.OnNavigationChanged("/book", "x=1"), "query-only change is the same logical page")
	assert.True(t, nav.OnNavigationChanged("/about", ""))
	assert.True(t, nav.OnNavigationChanged("/book", ""))

	events := e.sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []string{"/book", "/about", "/book"}, []string{events[0].PagePath, events[1].PagePath, events[2].PagePath})
	for i, ev := range events {
		assert.Equal(t, models.EventPageVisit, ev.EventType)
		assert.Equal(t, int64(i+1), ev.SequenceOrdinal)
		assert.Equal(t, events[0].SessionID, ev.SessionID)
		assert.Equal(t, events[0].VisitorID, ev.VisitorID)
	}

	last, ok := nav.LastPath()
	assert.True(t, ok)
	assert.Equal(t, "/book", last)
}

func TestNavigationTrackersHaveIndependentMemory(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, newYork(t)))

	assert.True(t, e.NewNavigationTracker().OnNavigationChanged("/book", ""))
	assert.True(t, e.NewNavigationTracker().OnNavigationChanged("/book", ""))
	assert.Len(t, e.sink.Events(), 2)
}

func TestNavigationCapturesAttributionOnSessionStart(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, newYork(t)))
	nav := e.NewNavigationTracker()

	nav.OnNavigationChanged("/", "fbclid=abc&utm_source=google&utm_campaign=launch")
	e.clock.Advance(time.Minute)
	nav.OnNavigationChanged("/pricing", "gclid=zzz")

	events := e.sink.Events()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, models.SourceFacebook, ev.Attribution.Source)
		assert.Equal(t, "abc", ev.Attribution.FBClID)
		assert.Equal(t, "launch", ev.Attribution.UTMCampaign)
	}
}

func TestFunnelEventsShareSessionAndOrdinals(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, newYork(t)))
	nav := e.NewNavigationTracker()

	nav.OnNavigationChanged("/book", "utm_source=facebook")
	e.clock.Advance(time.Minute)
	e.TrackBookingCreated("team-7")
	e.TrackVerificationRequired()
	e.TrackRegistration(false)
	e.TrackRegistration(true)

	events := e.sink.Events()
	require.Len(t, events, 5)

	wantTypes := []models.EventType{
		models.EventPageVisit,
		models.EventBookingCreated,
		models.EventVerificationRequired,
		models.EventRegistrationFailed,
		models.EventRegistrationCompleted,
	}
	for i, ev := range events {
		assert.Equal(t, wantTypes[i], ev.EventType)
		assert.Equal(t, int64(i+1), ev.SequenceOrdinal)
		assert.Equal(t, events[0].SequenceID, ev.SequenceID)
		assert.Equal(t, models.SourceFacebook, ev.Attribution.Source)
		assert.NotEmpty(t, ev.EventID)
	}
	assert.Equal(t, "team-7", events[1].TeamMemberID)
	assert.True(t, events[1].Timestamp.Equal(e.clock.Now()))
}

func TestDomainEventWithoutSessionOpensOne(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, newYork(t)))

	e.TrackBookingCreated("team-1")

	events := e.sink.Events()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].SessionID)
	assert.Equal(t, models.SourceDirect, events[0].Attribution.Source)
	assert.Equal(t, int64(1), events[0].SequenceOrdinal)
}

func TestNewDayStartsNewSessionAndSequence(t *testing.T) {
	ny := newYork(t)
	e := newTestEngine(t, time.Date(2026, 5, 1, 23, 30, 0, 0, ny))
	nav := e.NewNavigationTracker()

	nav.OnNavigationChanged("/book", "gclid=g")
	e.clock.Set(time.Date(2026, 5, 2, 0, 5, 0, 0, ny))
	nav.OnNavigationChanged("/confirm", "")

	events := e.sink.Events()
	require.Len(t, events, 2)
	assert.NotEqual(t, events[0].SessionID, events[1].SessionID)
	assert.NotEqual(t, events[0].SequenceID, events[1].SequenceID)
	assert.Equal(t, int64(1), events[1].SequenceOrdinal)
	assert.Equal(t, models.SourceGoogle, events[0].Attribution.Source)
	assert.Equal(t, models.SourceDirect, events[1].Attribution.Source)
	assert.Equal(t, events[0].VisitorID, events[1].VisitorID)
}

func TestBrokenStorageStillTracks(t *testing.T) {
	sink := &recordingSink{}
	clock := newFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, newYork(t)))
	e := NewEngine(brokenKVStore{}, sink, newYorkPolicy(t), WithClock(clock.Now))

	visitorID := e.Visitors().GetOrCreateVisitorID()
	require.NotEmpty(t, visitorID)
	assert.True(t, e.StorageDegraded())
	assert.Equal(t, visitorID, e.Visitors().GetOrCreateVisitorID())

	session, created := e.Sessions().GetOrRefreshSession(clock.Now(), ParseQuery("ttclid=t"))
	require.True(t, created)
	again, created := e.Sessions().GetOrRefreshSession(clock.Now().Add(time.Minute), nil)
	assert.False(t, created)
	assert.Equal(t, session.SessionID, again.SessionID)

	_, first := e.Sequence().NextOrdinal(session.SessionID)
	_, second := e.Sequence().NextOrdinal(session.SessionID)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	e.NewNavigationTracker().OnNavigationChanged("/book", "")
	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, visitorID, events[0].VisitorID)
	assert.Equal(t, session.SessionID, events[0].SessionID)
	assert.Equal(t, models.SourceTikTok, events[0].Attribution.Source)
	assert.Equal(t, int64(3), events[0].SequenceOrdinal)
}

func TestSinkFailuresAreSwallowed(t *testing.T) {
	calls := 0
	failing := SinkFunc(func(models.AnalyticsEvent) error {
		calls++
		if calls == 1 {
			return errors.New("collector down")
		}
		panic("sink exploded")
	})
	e := NewEngine(store.NewMemoryKVStore(), failing, newYorkPolicy(t))

	assert.NotPanics(t, func() {
		e.TrackBookingCreated("team-1")
		e.TrackVerificationRequired()
	})
	assert.Equal(t, int64(2), e.Dispatcher().Failures())
}

func TestEnginesSharingStoreSeeSameIdentity(t *testing.T) {
	kv := store.NewMemoryKVStore()
	clock := newFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, newYork(t)))
	tabA := NewEngine(kv, nil, newYorkPolicy(t), WithClock(clock.Now))
	tabB := NewEngine(kv, nil, newYorkPolicy(t), WithClock(clock.Now))

	tabA.NewNavigationTracker().OnNavigationChanged("/", "utm_source=google")
	a := tabA.Identity()
	b := tabB.Identity()

	assert.Equal(t, a.VisitorID, b.VisitorID)
	assert.Equal(t, a.Session.SessionID, b.Session.SessionID)
	assert.Equal(t, models.SourceGoogle, b.Attribution.Source)
}

func TestNilStoreFallsBackToMemory(t *testing.T) {
	e := NewEngine(nil, nil, newYorkPolicy(t))
	id := e.Identity()

	assert.NotEmpty(t, id.VisitorID)
	assert.NotEmpty(t, id.Session.SessionID)
	assert.Equal(t, models.SourceDirect, id.Attribution.Source)
}
