package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dish is a menu entry. Its price is the list price; orders store their own
// snapshot in OrderItem.PriceAtTime.
type Dish struct {
	ID        int64           `gorm:"column:dish_id;primaryKey;autoIncrement"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
