package store

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// BoltKVStore stores one origin's keys in its own bucket of a bbolt file.
type BoltKVStore struct {
	db     *bbolt.DB
	bucket []byte
}

func NewBoltKVStore(db *bbolt.DB, namespace string) (*BoltKVStore, error) {
	if namespace == "" {
		return nil, fmt.Errorf("bolt namespace is required")
	}
	s := &BoltKVStore{db: db, bucket: []byte(namespace)}
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %q: %w", namespace, err)
	}
	return s, nil
}

func (s *BoltKVStore) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %q is missing", s.bucket)
		}
		if v := b.Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, unavailable("bolt get", key, err)
	}
	return value, found, nil
}

func (s *BoltKVStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %q is missing", s.bucket)
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return unavailable("bolt set", key, err)
	}
	return nil
}

func (s *BoltKVStore) Remove(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %q is missing", s.bucket)
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return unavailable("bolt remove", key, err)
	}
	return nil
}
