package store

import (
	"log"
	"sync"
)

// FallbackKVStore never fails. Every value read from or written to the
// primary is mirrored into an in-memory shadow; after the first primary
// failure the store stays degraded and serves the shadow only.
type FallbackKVStore struct {
	mu       sync.Mutex
	primary  KeyValueStore
	shadow   *MemoryKVStore
	degraded bool
}

func NewFallbackKVStore(primary KeyValueStore) *FallbackKVStore {
	return &FallbackKVStore{primary: primary, shadow: NewMemoryKVStore()}
}

func (s *FallbackKVStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *FallbackKVStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		v, ok, err := s.primary.Get(key)
		if err == nil {
			if ok {
				s.shadow.Set(key, v)
			} else {
				s.shadow.Remove(key)
			}
			return v, ok, nil
		}
		s.degrade(err)
	}
	return s.shadow.Get(key)
}

func (s *FallbackKVStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		if err := s.primary.Set(key, value); err != nil {
			s.degrade(err)
		}
	}
	return s.shadow.Set(key, value)
}

func (s *FallbackKVStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		if err := s.primary.Remove(key); err != nil {
			s.degrade(err)
		}
	}
	return s.shadow.Remove(key)
}

func (s *FallbackKVStore) degrade(err error) {
	s.degraded = true
	log.Printf("ERROR: Tracking storage unavailable, continuing in memory for this process: %v", err)
}
