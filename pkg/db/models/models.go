package models

import "github.com/shopspring/decimal"

// Column scales: money is numeric(12,2), stock quantities numeric(12,3).
const (
	MoneyPlaces    int32 = 2
	QuantityPlaces int32 = 3
)

// FitsPlaces reports whether value is stored exactly at the given scale.
// Trailing zeros do not count.
func FitsPlaces(value decimal.Decimal, places int32) bool {
	return value.Equal(value.Truncate(places))
}

// All lists every persisted model in dependency order, for AutoMigrate in
// local SQLite runs and tests.
func All() []any {
	return []any{
		&Ingredient{},
		&Dish{},
		&DishIngredient{},
		&Order{},
		&OrderItem{},
		&OrderEmployeeAssignment{},
		&IngredientMovement{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
