package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryStore) LockKey(name string) string { return "pos:lock:" + name }

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newMemoryStore()
	first, err := NewRedisLock(store, 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, 0)
	ctx := context.Background()

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire ok=%v err=%v", ok, err)
	}
	if store.ttls[first.Key()] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttls[first.Key()])
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second worker must not acquire a held lock")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("non-owner release: %v", err)
	}
	if _, held := store.values[first.Key()]; !held {
		t.Fatal("non-owner release removed the lease")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected lock to be free after release")
	}
}

func TestRedisLockReleaseLeavesForeignLease(t *testing.T) {
	store := newMemoryStore()
	lock, _ := NewRedisLock(store, time.Minute)
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire failed")
	}
	// lease expired and another worker took it
	store.values[lock.Key()] = "someone-else"

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values[lock.Key()] != "someone-else" {
		t.Fatal("released a lease owned by another worker")
	}
}

func TestRedisLockReleaseSurfacesReadErrors(t *testing.T) {
	store := newMemoryStore()
	lock, _ := NewRedisLock(store, time.Minute)
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire failed")
	}
	store.getErr = errors.New("conn reset")
	if err := lock.Release(ctx); err == nil {
		t.Fatal("expected read error")
	}
}
