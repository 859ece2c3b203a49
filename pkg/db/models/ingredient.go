package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a stock-keeping unit consumed by dish recipes.
type Ingredient struct {
	ID                int64           `gorm:"column:ingredient_id;primaryKey;autoIncrement"`
	Name              string          `gorm:"column:name;not null;uniqueIndex"`
	Unit              string          `gorm:"column:unit;not null"`
	QuantityInStock   decimal.Decimal `gorm:"column:quantity_in_stock;type:numeric(12,3);not null;default:0;check:quantity_in_stock >= 0"`
	MinimumStockLevel decimal.Decimal `gorm:"column:minimum_stock_level;type:numeric(12,3);not null;default:0"`
	CostPerUnit       decimal.Decimal `gorm:"column:cost_per_unit;type:numeric(12,2);not null;default:0"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BelowMinimum reports whether stock has dropped under the reorder threshold.
func (i Ingredient) BelowMinimum() bool {
	return i.QuantityInStock.LessThan(i.MinimumStockLevel)
}
