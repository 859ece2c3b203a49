package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/pkg/config"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
	"github.com/lumierecia/restaurant-pos/pkg/outbox/payloads"
)

func TestEventRegistryResolveOrderPlaced(t *testing.T) {
	reg := newTestEventRegistry(t)

	payloadBytes := mustMarshal(t, payloads.OrderPlacedEvent{
		OrderID:     12,
		CustomerID:  3,
		OrderType:   enums.OrderTypeDineIn,
		TotalAmount: decimal.RequireFromString("540.00"),
		Items:       []payloads.OrderPlacedItem{{DishID: 5, Quantity: 3, PriceAtTime: decimal.RequireFromString("180.00")}},
	})

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   12,
		Payload:       mustEnvelope(t, payloadBytes),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "orders-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.OrderPlacedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.OrderID != 12 || len(payload.Items) != 1 || !payload.TotalAmount.Equal(decimal.NewFromInt(540)) {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
}

func TestEventRegistryRoutesLowStockToInventoryTopic(t *testing.T) {
	reg := newTestEventRegistry(t)

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventIngredientLowStock,
		AggregateType: enums.AggregateIngredient,
		AggregateID:   4,
		Payload:       mustEnvelope(t, mustMarshal(t, payloads.IngredientLowStockEvent{IngredientID: 4, Name: "Rice"})),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "inventory-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	if len(reg.Topics()) != 2 {
		t.Fatalf("expected two distinct topics, got %v", reg.Topics())
	}
}

func TestEventRegistryResolveRejectsBadRows(t *testing.T) {
	reg := newTestEventRegistry(t)
	good := mustEnvelope(t, mustMarshal(t, payloads.OrderPaidEvent{OrderID: 1}))

	cases := map[string]models.OutboxEvent{
		"unknown event":      {EventType: "menu_updated", AggregateType: enums.AggregateOrder, AggregateID: 1, Payload: good},
		"aggregate mismatch": {EventType: enums.EventOrderPaid, AggregateType: enums.AggregateIngredient, AggregateID: 1, Payload: good},
		"missing aggregate":  {EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, Payload: good},
		"null payload":       {EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: 1, Payload: mustEnvelope(t, json.RawMessage("null"))},
		"garbage envelope":   {EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: 1, Payload: json.RawMessage("{")},
	}
	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			var nonRetryable NonRetryableError
			if !errors.As(err, &nonRetryable) {
				t.Fatalf("expected NonRetryableError, got %v", err)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"}); err == nil {
		t.Fatal("expected error when inventory topic missing")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		OrdersTopic:    "orders-topic",
		InventoryTopic: "inventory-topic",
	})
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func mustEnvelope(t *testing.T, data json.RawMessage) json.RawMessage {
	t.Helper()
	return mustMarshal(t, outbox.PayloadEnvelope{
		Version:    1,
		EventID:    "evt-1",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Data:       data,
	})
}
