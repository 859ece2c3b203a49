package placement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/internal/recipes"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
)

// Candidate is the order header as entered at the terminal. Empty status
// fields default to pending.
type Candidate struct {
	CustomerID    int64
	OrderType     enums.OrderType
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
}

// Item is one ordered dish with the menu price captured when it was picked.
type Item struct {
	DishID    int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// plan is a validated placement ready to run inside a transaction.
type plan struct {
	header    models.Order
	lines     []recipes.Line
	items     []models.OrderItem
	employees []int64
}

func buildPlan(candidate Candidate, items []Item, employeeIDs []int64, actorEmployeeID int64) (*plan, error) {
	if actorEmployeeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "acting employee id is required")
	}
	if candidate.CustomerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !candidate.OrderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order type %q", candidate.OrderType))
	}
	status := candidate.Status
	if status == "" {
		status = enums.OrderStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", candidate.Status))
	}
	payment := candidate.PaymentStatus
	if payment == "" {
		payment = enums.PaymentStatusPending
	}
	if !payment.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", candidate.PaymentStatus))
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if len(employeeIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must be assigned to at least one employee")
	}

	p := &plan{
		lines: make([]recipes.Line, 0, len(items)),
		items: make([]models.OrderItem, 0, len(items)),
	}
	total := decimal.Zero
	seenDish := make(map[int64]struct{}, len(items))
	for i, item := range items {
		if item.DishID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: dish id is required", i))
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price cannot be negative", i))
		}
		if !models.FitsPlaces(item.UnitPrice, models.MoneyPlaces) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price has more than %d decimal places", i, models.MoneyPlaces))
		}
		if _, dup := seenDish[item.DishID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("dish %d appears on more than one line", item.DishID))
		}
		seenDish[item.DishID] = struct{}{}

		p.lines = append(p.lines, recipes.Line{DishID: item.DishID, Quantity: item.Quantity})
		row := models.OrderItem{DishID: item.DishID, Quantity: item.Quantity, PriceAtTime: item.UnitPrice}
		p.items = append(p.items, row)
		total = total.Add(row.LineTotal())
	}

	seenEmployee := make(map[int64]struct{}, len(employeeIDs))
	for _, id := range employeeIDs {
		if id <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee ids must be positive")
		}
		if _, dup := seenEmployee[id]; dup {
			continue
		}
		seenEmployee[id] = struct{}{}
		p.employees = append(p.employees, id)
	}

	p.header = models.Order{
		CustomerID:    candidate.CustomerID,
		OrderType:     candidate.OrderType,
		Status:        status,
		PaymentStatus: payment,
		TotalAmount:   total,
	}
	return p, nil
}
