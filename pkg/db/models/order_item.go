package models

import "github.com/shopspring/decimal"

// OrderItem is one dish line of an order. PriceAtTime never follows later
// menu price changes.
type OrderItem struct {
	OrderID     int64           `gorm:"column:order_id;primaryKey;autoIncrement:false"`
	DishID      int64           `gorm:"column:dish_id;primaryKey;autoIncrement:false"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:numeric(12,2);not null"`
}

// LineTotal is quantity times the price snapshot.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
