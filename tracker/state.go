// Package tracker assigns durable identities to anonymous visitors, manages
// calendar-bounded sessions, records first-touch attribution per session and
// stamps funnel events before handing them to a Sink.
//
// All state lives in a KeyValueStore shared with other engines on the same
// origin. Operations of one Engine are serialized; engines sharing a store
// see last-write-wins semantics.
package tracker

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"bookingtrack/api/store"
	"bookingtrack/api/utils"
)

// Storage keys. They must stay stable across deploys.
const (
	visitorKey     = "bt:visitor"
	sessionKey     = "bt:session"
	attributionKey = "bt:attribution"
	sequenceKey    = "bt:sequence"
)

// State is the process-wide tracking state shared by the managers of one Engine.
type State struct {
	mu    sync.Mutex
	kv    *store.FallbackKVStore
	now   func() time.Time
	newID func() string
}

func newState(kv store.KeyValueStore) *State {
	fb, ok := kv.(*store.FallbackKVStore)
	if !ok {
		fb = store.NewFallbackKVStore(kv)
	}
	return &State{
		kv:    fb,
		now:   time.Now,
		newID: utils.NewOpaqueID,
	}
}

// readJSON decodes key into dst. Absent and malformed values both report false;
// a malformed value is logged and left for the caller to overwrite.
func (s *State) readJSON(key string, dst any) bool {
	raw, ok, _ := s.kv.Get(key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Printf("ERROR: Malformed tracking value under %q, regenerating: %v", key, err)
		return false
	}
	return true
}

func (s *State) writeJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: Failed to encode tracking value for %q: %v", key, err)
		return
	}
	s.kv.Set(key, string(data))
}
