package errors

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientStock describes the first ingredient whose on-hand quantity could
// not cover an order's requirement.
type InsufficientStock struct {
	IngredientID int64           `json:"ingredient_id"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

func NewInsufficientStock(ingredientID int64, required, available decimal.Decimal) *Error {
	msg := fmt.Sprintf("ingredient %d: required %s, available %s", ingredientID, required.String(), available.String())
	return New(CodeInsufficientStock, msg).WithDetails(InsufficientStock{
		IngredientID: ingredientID,
		Required:     required,
		Available:    available,
	})
}

// AsInsufficientStock extracts the shortfall details from err.
func AsInsufficientStock(err error) (InsufficientStock, bool) {
	typed := As(err)
	if typed == nil || typed.Code() != CodeInsufficientStock {
		return InsufficientStock{}, false
	}
	details, ok := typed.Details().(InsufficientStock)
	return details, ok
}
