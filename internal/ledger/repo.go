package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/pagination"
)

// Repository manages ingredient rows and their append-only movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, ingredientID int64) (*models.Ingredient, error)
	// LockForUpdate reads the row under an exclusive lock held until the
	// surrounding transaction ends.
	LockForUpdate(ctx context.Context, ingredientID int64) (*models.Ingredient, error)
	SetQuantity(ctx context.Context, ingredientID int64, quantity decimal.Decimal) error
	// DecrementStock writes remaining only while the row still holds at least
	// required, and returns ErrStockChanged otherwise.
	DecrementStock(ctx context.Context, ingredientID int64, required, remaining decimal.Decimal) error
	AppendMovement(ctx context.Context, movement *models.IngredientMovement) error
	ListBelowMinimum(ctx context.Context) ([]models.Ingredient, error)
	ListMovementsByIngredient(ctx context.Context, ingredientID int64, cursor *pagination.Cursor, limit int) ([]models.IngredientMovement, error)
	ListMovementsByOrder(ctx context.Context, orderID int64) ([]models.IngredientMovement, error)
	SumMovements(ctx context.Context, ingredientID int64) (decimal.Decimal, error)
}

// ErrStockChanged reports a guarded decrement that matched no row.
var ErrStockChanged = errors.New("ingredient stock changed before decrement")

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, ingredientID int64) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) LockForUpdate(ctx context.Context, ingredientID int64) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ingredient_id = ?", ingredientID).
		First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) SetQuantity(ctx context.Context, ingredientID int64, quantity decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("ingredient_id = ?", ingredientID).
		Update("quantity_in_stock", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return pkgerrors.New(pkgerrors.CodeWriteFailed, fmt.Sprintf("update stock for ingredient %d: %d rows affected", ingredientID, res.RowsAffected))
	}
	return nil
}

func (r *repository) DecrementStock(ctx context.Context, ingredientID int64, required, remaining decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("ingredient_id = ? AND quantity_in_stock >= ?", ingredientID, required).
		Update("quantity_in_stock", remaining)
	if res.Error != nil {
		return res.Error
	}
	switch res.RowsAffected {
	case 1:
		return nil
	case 0:
		return ErrStockChanged
	default:
		return pkgerrors.New(pkgerrors.CodeWriteFailed, fmt.Sprintf("decrement stock for ingredient %d: %d rows affected", ingredientID, res.RowsAffected))
	}
}

func (r *repository) AppendMovement(ctx context.Context, movement *models.IngredientMovement) error {
	if err := ValidateMovement(*movement); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListBelowMinimum(ctx context.Context) ([]models.Ingredient, error) {
	var rows []models.Ingredient
	if err := r.db.WithContext(ctx).
		Where("quantity_in_stock < minimum_stock_level").
		Order("ingredient_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListMovementsByIngredient(ctx context.Context, ingredientID int64, cursor *pagination.Cursor, limit int) ([]models.IngredientMovement, error) {
	q := r.db.WithContext(ctx).Where("ingredient_id = ?", ingredientID)
	if cursor != nil {
		q = q.Where("transaction_id < ?", cursor.ID)
	}
	var rows []models.IngredientMovement
	if err := q.Order("transaction_id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListMovementsByOrder(ctx context.Context, orderID int64) ([]models.IngredientMovement, error) {
	var rows []models.IngredientMovement
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("ingredient_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumMovements totals deltas in decimal. sqlite's SUM over numeric columns is
// floating point.
func (r *repository) SumMovements(ctx context.Context, ingredientID int64) (decimal.Decimal, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&models.IngredientMovement{}).
		Select("quantity_change").
		Where("ingredient_id = ?", ingredientID).
		Rows()
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var delta decimal.Decimal
		if err := rows.Scan(&delta); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(delta)
	}
	return total, rows.Err()
}
