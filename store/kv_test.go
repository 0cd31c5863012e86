package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"bookingtrack/api/database"
	"bookingtrack/api/models"
)

// exerciseKVStore runs the contract every backend must satisfy.
func exerciseKVStore(t *testing.T, s KeyValueStore) {
	t.Helper()

	_, ok, err := s.Get("bt:visitor")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("bt:visitor", `{"visitorId":"v-1"}`))
	v, ok, err := s.Get("bt:visitor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"visitorId":"v-1"}`, v)

	require.NoError(t, s.Set("bt:visitor", `{"visitorId":"v-2"}`))
	v, _, _ = s.Get("bt:visitor")
	assert.Equal(t, `{"visitorId":"v-2"}`, v)

	require.NoError(t, s.Remove("bt:visitor"))
	_, ok, err = s.Get("bt:visitor")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remove("never-set"))
}

func TestMemoryKVStore(t *testing.T) {
	exerciseKVStore(t, NewMemoryKVStore())
}

func openBolt(t *testing.T) *bbolt.DB {
	t.Helper()
	client, err := database.OpenBolt(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client.DB
}

func TestBoltKVStore(t *testing.T) {
	s, err := NewBoltKVStore(openBolt(t), "https://book.example.com")
	require.NoError(t, err)
	exerciseKVStore(t, s)
}

func TestBoltKVStoreNamespacesAreIsolated(t *testing.T) {
	db := openBolt(t)
	a, err := NewBoltKVStore(db, "origin-a")
	require.NoError(t, err)
	b, err := NewBoltKVStore(db, "origin-b")
	require.NoError(t, err)

	require.NoError(t, a.Set("bt:visitor", "a"))
	_, ok, err := b.Get("bt:visitor")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewBoltKVStore(db, "")
	assert.Error(t, err)
}

func TestBoltKVStoreClosedDBIsUnavailable(t *testing.T) {
	client, err := database.OpenBolt(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	s, err := NewBoltKVStore(client.DB, "origin")
	require.NoError(t, err)
	client.Close()

	_, _, err = s.Get("bt:visitor")
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.True(t, errors.Is(s.Set("bt:visitor", "x"), ErrStorageUnavailable))
}

type flakyKVStore struct {
	*MemoryKVStore
	broken bool
}

func (f *flakyKVStore) Get(key string) (string, bool, error) {
	if f.broken {
		return "", false, ErrStorageUnavailable
	}
	return f.MemoryKVStore.Get(key)
}

func (f *flakyKVStore) Set(key, value string) error {
	if f.broken {
		return ErrStorageUnavailable
	}
	return f.MemoryKVStore.Set(key, value)
}

func (f *flakyKVStore) Remove(key string) error {
	if f.broken {
		return ErrStorageUnavailable
	}
	return f.MemoryKVStore.Remove(key)
}

func TestFallbackKVStoreKeepsKnownValuesAfterFailure(t *testing.T) {
	primary := &flakyKVStore{MemoryKVStore: NewMemoryKVStore()}
	require.NoError(t, primary.MemoryKVStore.Set("bt:visitor", "persisted"))

	s := NewFallbackKVStore(primary)
	v, ok, err := s.Get("bt:visitor")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", v)
	require.NoError(t, s.Set("bt:session", "s-1"))
	assert.False(t, s.Degraded())

	primary.broken = true

	v, ok, err = s.Get("bt:visitor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
	assert.True(t, s.Degraded())

	v, _, _ = s.Get("bt:session")
	assert.Equal(t, "s-1", v)

	// Recovery of the primary is not observed for the rest of the process.
	primary.broken = false
	require.NoError(t, s.Set("bt:sequence", "q"))
	_, ok, _ = primary.MemoryKVStore.Get("bt:sequence")
	assert.False(t, ok)
}

func TestFallbackKVStoreNeverErrors(t *testing.T) {
	primary := &flakyKVStore{MemoryKVStore: NewMemoryKVStore(), broken: true}
	s := NewFallbackKVStore(primary)

	assert.NoError(t, s.Set("k", "v"))
	v, ok, err := s.Get("k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.NoError(t, s.Remove("k"))
	_, ok, _ = s.Get("k")
	assert.False(t, ok)
}

func TestRedisKVStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ns := "test-" + time.Now().Format("150405.000000")
	exerciseKVStore(t, NewRedisKVStore(client, ns, time.Second))
}

func TestPostgresKVStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	client, err := database.NewPostgresDB(dsn)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	require.NoError(t, client.EnsureKVSchema(context.Background()))

	ns := "test-" + time.Now().Format("150405.000000")
	exerciseKVStore(t, NewPostgresKVStore(client.DB, ns, time.Second))
}

func TestBuildFunnelKeepsStepOrder(t *testing.T) {
	got := BuildFunnel(map[models.EventType]uint64{
		models.EventBookingCreated:     4,
		models.EventPageVisit:          10,
		models.EventRegistrationFailed: 1,
	})

	require.Len(t, got, len(models.FunnelSteps))
	assert.Equal(t, models.EventPageVisit, got[0].EventType)
	assert.Equal(t, uint64(10), got[0].Sessions)
	assert.Equal(t, uint64(4), got[1].Sessions)
	assert.Equal(t, uint64(0), got[2].Sessions)
	assert.Equal(t, models.EventRegistrationCompleted, got[3].EventType)
}
