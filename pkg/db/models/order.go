package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/pkg/enums"
)

// Order is the header row of a placed order.
type Order struct {
	ID            int64               `gorm:"column:order_id;primaryKey;autoIncrement"`
	CustomerID    int64               `gorm:"column:customer_id;not null;index"`
	OrderType     enums.OrderType     `gorm:"column:order_type;type:varchar(20);not null"`
	Status        enums.OrderStatus   `gorm:"column:order_status;type:varchar(20);not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	IsDeleted     bool                `gorm:"column:is_deleted;not null;default:false"`
	OrderDatetime time.Time           `gorm:"column:order_datetime;autoCreateTime"`
}
