package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/pkg/enums"
)

// IngredientMovement is one append-only row of the ingredient ledger.
type IngredientMovement struct {
	ID             int64              `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	IngredientID   int64              `gorm:"column:ingredient_id;not null;index"`
	Kind           enums.MovementKind `gorm:"column:transaction_type;type:varchar(20);not null"`
	QuantityChange decimal.Decimal    `gorm:"column:quantity_change;type:numeric(12,3);not null"`
	OrderID        *int64             `gorm:"column:order_id;index"`
	EmployeeID     int64              `gorm:"column:employee_id;not null"`
	Notes          string             `gorm:"column:notes;type:text"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (IngredientMovement) TableName() string {
	return "ingredient_transactions"
}
