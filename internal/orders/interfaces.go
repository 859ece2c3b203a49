package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
)

// Repository defines persistence operations for the order aggregate tables.
// Create methods report affected rows so callers can detect partial writes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (int64, error)
	CreateItems(ctx context.Context, items []models.OrderItem) (int64, error)
	CreateAssignments(ctx context.Context, rows []models.OrderEmployeeAssignment) (int64, error)
	FindOrder(ctx context.Context, orderID int64) (*models.Order, error)
	LockOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListAssignments(ctx context.Context, orderID int64) ([]models.OrderEmployeeAssignment, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status enums.PaymentStatus) error
}
