package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
)

// OrderDetail is the read model returned for a single order.
type OrderDetail struct {
	OrderID       int64               `json:"order_id"`
	CustomerID    int64               `json:"customer_id"`
	OrderType     enums.OrderType     `json:"order_type"`
	Status        enums.OrderStatus   `json:"order_status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	OrderDatetime time.Time           `json:"order_datetime"`
	Items         []ItemView          `json:"items"`
	EmployeeIDs   []int64             `json:"employee_ids"`
	Movements     []MovementView      `json:"movements"`
}

type ItemView struct {
	DishID      int64           `json:"dish_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// MovementView is one ledger row the order generated.
type MovementView struct {
	MovementID     int64              `json:"movement_id"`
	IngredientID   int64              `json:"ingredient_id"`
	Kind           enums.MovementKind `json:"kind"`
	QuantityChange decimal.Decimal    `json:"quantity_change"`
	EmployeeID     int64              `json:"employee_id"`
	Notes          string             `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// OrderSummary is returned by header transitions.
type OrderSummary struct {
	OrderID       int64               `json:"order_id"`
	Status        enums.OrderStatus   `json:"order_status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
}

func newOrderSummary(order *models.Order) *OrderSummary {
	return &OrderSummary{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
	}
}

func newOrderDetail(order *models.Order, items []models.OrderItem, assignments []models.OrderEmployeeAssignment, movements []models.IngredientMovement) *OrderDetail {
	detail := &OrderDetail{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		OrderType:     order.OrderType,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		OrderDatetime: order.OrderDatetime,
		Items:         make([]ItemView, 0, len(items)),
		EmployeeIDs:   make([]int64, 0, len(assignments)),
		Movements:     make([]MovementView, 0, len(movements)),
	}
	for _, item := range items {
		detail.Items = append(detail.Items, ItemView{
			DishID:      item.DishID,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
			LineTotal:   item.LineTotal(),
		})
	}
	for _, a := range assignments {
		detail.EmployeeIDs = append(detail.EmployeeIDs, a.EmployeeID)
	}
	for _, m := range movements {
		detail.Movements = append(detail.Movements, MovementView{
			MovementID:     m.ID,
			IngredientID:   m.IngredientID,
			Kind:           m.Kind,
			QuantityChange: m.QuantityChange,
			EmployeeID:     m.EmployeeID,
			Notes:          m.Notes,
			CreatedAt:      m.CreatedAt,
		})
	}
	return detail
}
