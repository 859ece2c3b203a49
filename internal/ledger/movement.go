package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
)

// UsageNote is the note stamped on movements written by order placement.
func UsageNote(orderID int64) string {
	return fmt.Sprintf("order #%d", orderID)
}

// NewUsage builds the movement for an order's consumption of one ingredient.
func NewUsage(ingredientID, orderID, employeeID int64, consumed decimal.Decimal) models.IngredientMovement {
	ref := orderID
	return models.IngredientMovement{
		IngredientID:   ingredientID,
		Kind:           enums.MovementUsage,
		QuantityChange: consumed.Neg(),
		OrderID:        &ref,
		EmployeeID:     employeeID,
		Notes:          UsageNote(orderID),
	}
}

// ValidateMovement enforces the ledger row shape: usage rows are negative and
// reference an order, every row names an ingredient and an employee.
func ValidateMovement(m models.IngredientMovement) error {
	if m.IngredientID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement ingredient id is required")
	}
	if m.EmployeeID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement employee id is required")
	}
	if !m.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement kind %q", m.Kind))
	}
	if m.QuantityChange.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement quantity change must be non-zero")
	}
	switch m.Kind {
	case enums.MovementUsage:
		if !m.QuantityChange.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage movement must be negative")
		}
		if m.OrderID == nil || *m.OrderID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage movement requires an order reference")
		}
	case enums.MovementRestock:
		if !m.QuantityChange.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "restock movement must be positive")
		}
	}
	return nil
}
