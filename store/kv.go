package store

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable marks a backend that cannot serve reads or writes
// (disabled, unreachable, or out of space).
var ErrStorageUnavailable = errors.New("storage unavailable")

// KeyValueStore is the durable per-origin string store the tracking engine
// persists its state in. Implementations give no transactional guarantees.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%s %q: %w: %w", op, key, ErrStorageUnavailable, err)
}
