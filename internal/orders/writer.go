package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
)

// Writer persists the order aggregate inside a caller-owned transaction.
// Nothing it writes is visible until that transaction commits.
type Writer struct {
	repo Repository
}

func NewWriter(repo Repository) (*Writer, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &Writer{repo: repo}, nil
}

// WriteOrder inserts the header, then its lines.
func (w *Writer) WriteOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem, employeeIDs []int64) (int64, error) {
	orderID, err := w.CreateHeader(ctx, tx, order)
	if err != nil {
		return 0, err
	}
	if err := w.WriteLines(ctx, tx, orderID, items, employeeIDs); err != nil {
		return 0, err
	}
	return orderID, nil
}

// CreateHeader inserts the order row and returns its generated id.
func (w *Writer) CreateHeader(ctx context.Context, tx *gorm.DB, order *models.Order) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "order write requires an open transaction")
	}
	if order == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order header required")
	}
	rows, err := w.repo.WithTx(tx).CreateOrder(ctx, order)
	if err != nil {
		return 0, db.WrapStorage(err, pkgerrors.CodeWriteFailed, "insert order header")
	}
	if rows == 0 || order.ID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeWriteFailed, "order header insert affected no rows")
	}
	return order.ID, nil
}

// WriteLines batch-inserts item and assignment rows for orderID. A batch whose
// affected-row count differs from its length fails the whole write.
func (w *Writer) WriteLines(ctx context.Context, tx *gorm.DB, orderID int64, items []models.OrderItem, employeeIDs []int64) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order write requires an open transaction")
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order items required")
	}
	if len(employeeIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "assigned employees required")
	}
	repo := w.repo.WithTx(tx)

	lines := make([]models.OrderItem, len(items))
	for i, item := range items {
		item.OrderID = orderID
		lines[i] = item
	}
	rows, err := repo.CreateItems(ctx, lines)
	if err != nil {
		return db.WrapStorage(err, pkgerrors.CodeWriteFailed, "insert order items")
	}
	if rows != int64(len(lines)) {
		return pkgerrors.New(pkgerrors.CodeWriteFailed, fmt.Sprintf("order items insert affected %d of %d rows", rows, len(lines)))
	}

	assignments := make([]models.OrderEmployeeAssignment, len(employeeIDs))
	for i, id := range employeeIDs {
		assignments[i] = models.OrderEmployeeAssignment{OrderID: orderID, EmployeeID: id}
	}
	rows, err = repo.CreateAssignments(ctx, assignments)
	if err != nil {
		return db.WrapStorage(err, pkgerrors.CodeWriteFailed, "insert order assignments")
	}
	if rows != int64(len(assignments)) {
		return pkgerrors.New(pkgerrors.CodeWriteFailed, fmt.Sprintf("order assignments insert affected %d of %d rows", rows, len(assignments)))
	}
	return nil
}
