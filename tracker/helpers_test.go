package tracker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"bookingtrack/api/models"
	"bookingtrack/api/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.AnalyticsEvent
}

func (s *recordingSink) Send(event models.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []models.AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AnalyticsEvent, len(s.events))
	copy(out, s.events)
	return out
}

// brokenKVStore fails every operation, like storage disabled in the browser.
type brokenKVStore struct{}

var errDisabled = errors.New("disabled")

func (brokenKVStore) Get(key string) (string, bool, error) {
	return "", false, fmt.Errorf("get %q: %w: %w", key, store.ErrStorageUnavailable, errDisabled)
}

func (brokenKVStore) Set(key, value string) error {
	return fmt.Errorf("set %q: %w", key, store.ErrStorageUnavailable)
}

func (brokenKVStore) Remove(key string) error {
	return fmt.Errorf("remove %q: %w", key, store.ErrStorageUnavailable)
}

func newYorkPolicy(t *testing.T) SessionPolicy {
	t.Helper()
	p, err := NewSessionPolicy(DefaultLifespanHours, "America/New_York")
	require.NoError(t, err)
	return p
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	return loadZone(t, "America/New_York")
}

func loadZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

type testEngine struct {
	*Engine
	kv    *store.MemoryKVStore
	sink  *recordingSink
	clock *fakeClock
}

func newTestEngine(t *testing.T, start time.Time) *testEngine {
	t.Helper()
	kv := store.NewMemoryKVStore()
	sink := &recordingSink{}
	clock := newFakeClock(start)
	e := NewEngine(kv, sink, newYorkPolicy(t), WithClock(clock.Now), WithIDGenerator(sequentialIDs("id")))
	return &testEngine{Engine: e, kv: kv, sink: sink, clock: clock}
}
