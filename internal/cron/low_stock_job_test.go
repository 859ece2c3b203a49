package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumierecia/restaurant-pos/internal/ledger"
	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/dbtest"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
	"github.com/lumierecia/restaurant-pos/pkg/outbox/payloads"
)

type memoryGate struct {
	seen map[string]bool
	err  error
}

func (g *memoryGate) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *memoryGate) IdempotencyKey(scope, id string) string { return scope + ":" + id }

type failingLister struct{}

func (failingLister) LowStock(context.Context) ([]models.Ingredient, error) {
	return nil, errors.New("db down")
}

func TestLowStockJobEmitsOneEventPerIngredientBelowMinimum(t *testing.T) {
	conn := dbtest.Open(t)
	low := dbtest.Ingredient(t, conn, "basil", "2", "5")
	dbtest.Ingredient(t, conn, "flour", "50", "5")

	client := db.FromGorm(conn)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client)
	require.NoError(t, err)
	gate := &memoryGate{seen: map[string]bool{}}
	job, err := NewLowStockJob(LowStockJobParams{
		Logger: logger.Nop(),
		DB:     client,
		Ledger: ledgerSvc,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		Gate:   gate,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	// second scan inside the cooldown is suppressed
	require.NoError(t, job.Run(context.Background()))

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventIngredientLowStock, rows[0].EventType)
	assert.Equal(t, low, rows[0].AggregateID)

	var envelope struct {
		Data payloads.IngredientLowStockEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, "basil", envelope.Data.Name)
	assert.Equal(t, "2", envelope.Data.QuantityInStock.String())
}

func TestLowStockJobCollectsGateErrors(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.Ingredient(t, conn, "basil", "1", "5")
	dbtest.Ingredient(t, conn, "thyme", "1", "5")

	client := db.FromGorm(conn)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client)
	require.NoError(t, err)
	job, err := NewLowStockJob(LowStockJobParams{
		Logger: logger.Nop(),
		DB:     client,
		Ledger: ledgerSvc,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		Gate:   &memoryGate{err: errors.New("redis down")},
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, int64(0), dbtest.Count(t, conn, &models.OutboxEvent{}))
}

func TestLowStockJobFailsWhenListingFails(t *testing.T) {
	job, err := NewLowStockJob(LowStockJobParams{
		Logger: logger.Nop(),
		DB:     passthroughTx{},
		Ledger: failingLister{},
		Outbox: outbox.NewService(nil, nil),
	})
	require.NoError(t, err)
	require.Error(t, job.Run(context.Background()))
}
