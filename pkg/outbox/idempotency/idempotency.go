// Package idempotency remembers which outbox events already reached the
// broker, so a publisher that crashes between publishing and marking the row
// does not publish the event a second time.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumierecia/restaurant-pos/pkg/redis"
)

const defaultTTL = 7 * 24 * time.Hour

type store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Guard records delivered event ids per publisher with a TTL.
type Guard struct {
	store store
	scope string
	ttl   time.Duration
}

func NewGuard(s store, publisherName string, ttl time.Duration) (*Guard, error) {
	if s == nil {
		return nil, errors.New("idempotency store is required")
	}
	if publisherName == "" {
		return nil, errors.New("publisher name is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Guard{store: s, scope: "evt:delivered:" + publisherName, ttl: ttl}, nil
}

// Delivered reports whether eventID was already handed to the broker.
func (g *Guard) Delivered(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	value, err := g.store.Get(ctx, key)
	if redis.IsNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value != "", nil
}

// MarkDelivered records eventID. It reports false when it was already recorded.
func (g *Guard) MarkDelivered(ctx context.Context, eventID uuid.UUID, brokerID string) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	if brokerID == "" {
		brokerID = "1"
	}
	return g.store.SetNX(ctx, key, brokerID, g.ttl)
}

func (g *Guard) Forget(ctx context.Context, eventID uuid.UUID) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey(g.scope, eventID.String()), nil
}
