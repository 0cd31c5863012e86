package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresKVStore keeps keys in the tracking_kv table, one namespace per origin.
type PostgresKVStore struct {
	db        *sql.DB
	namespace string
	timeout   time.Duration
}

func NewPostgresKVStore(db *sql.DB, namespace string, timeout time.Duration) *PostgresKVStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PostgresKVStore{db: db, namespace: namespace, timeout: timeout}
}

func (s *PostgresKVStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM tracking_kv WHERE namespace = $1 AND key = $2;`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("postgres get", key, err)
	}
	return value, true, nil
}

func (s *PostgresKVStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracking_kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now();
	`, s.namespace, key, value)
	if err != nil {
		return unavailable("postgres set", key, err)
	}
	return nil
}

func (s *PostgresKVStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM tracking_kv WHERE namespace = $1 AND key = $2;`,
		s.namespace, key,
	)
	if err != nil {
		return unavailable("postgres remove", key, err)
	}
	return nil
}
