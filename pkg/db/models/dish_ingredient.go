package models

import "github.com/shopspring/decimal"

// DishIngredient is one recipe line: how much of an ingredient a single
// serving of the dish consumes.
type DishIngredient struct {
	DishID         int64           `gorm:"column:dish_id;primaryKey;autoIncrement:false"`
	IngredientID   int64           `gorm:"column:ingredient_id;primaryKey;autoIncrement:false"`
	QuantityNeeded decimal.Decimal `gorm:"column:quantity_needed;type:numeric(12,3);not null"`
}
