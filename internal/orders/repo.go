package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (int64, error) {
	res := r.db.WithContext(ctx).Create(order)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Create(&items)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateAssignments(ctx context.Context, rows []models.OrderEmployeeAssignment) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Create(&rows)
	return res.RowsAffected, res.Error
}

func (r *repository) FindOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND is_deleted = ?", orderID, false).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) LockOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND is_deleted = ?", orderID, false).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("dish_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListAssignments(ctx context.Context, orderID int64) ([]models.OrderEmployeeAssignment, error) {
	var rows []models.OrderEmployeeAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("employee_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	return r.updateOne(ctx, orderID, "order_status", status)
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, orderID int64, status enums.PaymentStatus) error {
	return r.updateOne(ctx, orderID, "payment_status", status)
}

func (r *repository) updateOne(ctx context.Context, orderID int64, column string, value any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return pkgerrors.New(pkgerrors.CodeWriteFailed, fmt.Sprintf("update %s on order %d: %d rows affected", column, orderID, res.RowsAffected))
	}
	return nil
}
