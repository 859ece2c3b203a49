package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/pkg/enums"
)

// OrderPlacedEvent is emitted once an order and its stock deductions commit.
type OrderPlacedEvent struct {
	OrderID     int64             `json:"order_id"`
	CustomerID  int64             `json:"customer_id"`
	OrderType   enums.OrderType   `json:"order_type"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderPlacedItem `json:"items"`
	EmployeeIDs []int64           `json:"employee_ids"`
	Usage       []IngredientUsage `json:"usage"`
	PlacedAt    time.Time         `json:"placed_at"`
}

type OrderPlacedItem struct {
	DishID      int64           `json:"dish_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

type IngredientUsage struct {
	IngredientID int64           `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// OrderStatusChangedEvent tracks kitchen/service progress.
type OrderStatusChangedEvent struct {
	OrderID int64             `json:"order_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderPaidEvent is emitted when the header flips to paid.
type OrderPaidEvent struct {
	OrderID     int64           `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAt      time.Time       `json:"paid_at"`
}

// IngredientLowStockEvent alerts purchasing that an ingredient needs reorder.
type IngredientLowStockEvent struct {
	IngredientID      int64           `json:"ingredient_id"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	QuantityInStock   decimal.Decimal `json:"quantity_in_stock"`
	MinimumStockLevel decimal.Decimal `json:"minimum_stock_level"`
}
