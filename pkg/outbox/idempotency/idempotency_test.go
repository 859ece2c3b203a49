package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumierecia/restaurant-pos/pkg/redis"
)

type fakeStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.failGet != nil {
		return "", f.failGet
	}
	return f.values[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "pos:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestGuardRecordsDelivery(t *testing.T) {
	store := newFakeStore()
	guard, err := NewGuard(store, "outbox-publisher", 0)
	require.NoError(t, err)
	ctx := context.Background()
	id := uuid.New()

	seen, err := guard.Delivered(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)

	first, err := guard.MarkDelivered(ctx, id, "msg-1")
	require.NoError(t, err)
	assert.True(t, first)
	key := "pos:idempotency:evt:delivered:outbox-publisher:" + id.String()
	assert.Equal(t, "msg-1", store.values[key])
	assert.Equal(t, defaultTTL, store.ttls[key])

	again, err := guard.MarkDelivered(ctx, id, "msg-2")
	require.NoError(t, err)
	assert.False(t, again)

	seen, err = guard.Delivered(ctx, id)
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Forget(ctx, id))
	seen, err = guard.Delivered(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGuardRejectsBadInput(t *testing.T) {
	_, err := NewGuard(nil, "x", time.Hour)
	assert.Error(t, err)
	_, err = NewGuard(newFakeStore(), "", time.Hour)
	assert.Error(t, err)
	_, err = NewGuard(newFakeStore(), "x", -time.Second)
	assert.Error(t, err)

	guard, err := NewGuard(newFakeStore(), "x", time.Hour)
	require.NoError(t, err)
	_, err = guard.MarkDelivered(context.Background(), uuid.Nil, "")
	assert.Error(t, err)
}

func TestGuardSurfacesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.failGet = errors.New("conn refused")
	guard, err := NewGuard(store, "x", time.Hour)
	require.NoError(t, err)
	_, err = guard.Delivered(context.Background(), uuid.New())
	assert.Error(t, err)
}

// *redis.Client satisfies the guard's store.
var _ store = (*redis.Client)(nil)
