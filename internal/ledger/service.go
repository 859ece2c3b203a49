package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/pagination"
)

// Service covers stock movements that happen outside order placement, plus
// ledger reads.
type Service interface {
	Restock(ctx context.Context, input RestockInput) (*models.IngredientMovement, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.IngredientMovement, error)
	Movements(ctx context.Context, ingredientID int64, params pagination.Params) (*MovementPage, error)
	OrderMovements(ctx context.Context, orderID int64) ([]models.IngredientMovement, error)
	LowStock(ctx context.Context) ([]models.Ingredient, error)
	Reconcile(ctx context.Context, ingredientID int64, opening decimal.Decimal) (*Reconciliation, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type RestockInput struct {
	IngredientID    int64           `json:"ingredient_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	ActorEmployeeID int64           `json:"actor_employee_id"`
	Note            string          `json:"note"`
}

// AdjustInput corrects stock after a count. Delta may be either sign.
type AdjustInput struct {
	IngredientID    int64           `json:"ingredient_id"`
	Delta           decimal.Decimal `json:"delta"`
	ActorEmployeeID int64           `json:"actor_employee_id"`
	Note            string          `json:"note"`
}

type MovementPage struct {
	Movements  []models.IngredientMovement `json:"movements"`
	NextCursor string                      `json:"next_cursor,omitempty"`
}

// Reconciliation compares the live stock figure with what the ledger implies.
type Reconciliation struct {
	IngredientID  int64           `json:"ingredient_id"`
	Opening       decimal.Decimal `json:"opening"`
	MovementTotal decimal.Decimal `json:"movement_total"`
	Expected      decimal.Decimal `json:"expected"`
	Actual        decimal.Decimal `json:"actual"`
	Balanced      bool            `json:"balanced"`
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Restock(ctx context.Context, input RestockInput) (*models.IngredientMovement, error) {
	if input.IngredientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient id is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	if !models.FitsPlaces(input.Quantity, models.QuantityPlaces) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("restock quantity has more than %d decimal places", models.QuantityPlaces))
	}
	if input.ActorEmployeeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor employee id is required")
	}
	return s.apply(ctx, input.IngredientID, input.Quantity, enums.MovementRestock, input.ActorEmployeeID, input.Note)
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.IngredientMovement, error) {
	if input.IngredientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient id is required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}
	if !models.FitsPlaces(input.Delta, models.QuantityPlaces) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("adjustment delta has more than %d decimal places", models.QuantityPlaces))
	}
	if input.ActorEmployeeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor employee id is required")
	}
	if strings.TrimSpace(input.Note) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment note is required")
	}
	return s.apply(ctx, input.IngredientID, input.Delta, enums.MovementAdjustment, input.ActorEmployeeID, input.Note)
}

func (s *service) apply(ctx context.Context, ingredientID int64, delta decimal.Decimal, kind enums.MovementKind, actorID int64, note string) (*models.IngredientMovement, error) {
	var movement models.IngredientMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ingredient, err := repo.LockForUpdate(ctx, ingredientID)
		if err != nil {
			return MapLookupError(err, ingredientID)
		}
		next := ingredient.QuantityInStock.Add(delta)
		if next.IsNegative() {
			return pkgerrors.NewInsufficientStock(ingredientID, delta.Neg(), ingredient.QuantityInStock)
		}
		if err := repo.SetQuantity(ctx, ingredientID, next); err != nil {
			return err
		}
		movement = models.IngredientMovement{
			IngredientID:   ingredientID,
			Kind:           kind,
			QuantityChange: delta,
			EmployeeID:     actorID,
			Notes:          strings.TrimSpace(note),
		}
		return repo.AppendMovement(ctx, &movement)
	})
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "record ingredient movement")
	}
	return &movement, nil
}

func (s *service) Movements(ctx context.Context, ingredientID int64, params pagination.Params) (*MovementPage, error) {
	if ingredientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if _, err := s.repo.FindByID(ctx, ingredientID); err != nil {
		return nil, MapLookupError(err, ingredientID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListMovementsByIngredient(ctx, ingredientID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "list ingredient movements")
	}
	page := &MovementPage{Movements: rows}
	if len(rows) > limit {
		page.Movements = rows[:limit]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{ID: rows[limit-1].ID})
	}
	return page, nil
}

func (s *service) OrderMovements(ctx context.Context, orderID int64) ([]models.IngredientMovement, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	rows, err := s.repo.ListMovementsByOrder(ctx, orderID)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "list order movements")
	}
	return rows, nil
}

func (s *service) LowStock(ctx context.Context) ([]models.Ingredient, error) {
	rows, err := s.repo.ListBelowMinimum(ctx)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "list low stock ingredients")
	}
	return rows, nil
}

func (s *service) Reconcile(ctx context.Context, ingredientID int64, opening decimal.Decimal) (*Reconciliation, error) {
	ingredient, err := s.repo.FindByID(ctx, ingredientID)
	if err != nil {
		return nil, MapLookupError(err, ingredientID)
	}
	total, err := s.repo.SumMovements(ctx, ingredientID)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "sum ingredient movements")
	}
	expected := opening.Add(total)
	return &Reconciliation{
		IngredientID:  ingredientID,
		Opening:       opening,
		MovementTotal: total,
		Expected:      expected,
		Actual:        ingredient.QuantityInStock,
		Balanced:      expected.Equal(ingredient.QuantityInStock),
	}, nil
}

// MapLookupError turns a missing row into NotFound. Other storage errors are
// typed by db.WrapStorage.
func MapLookupError(err error, ingredientID int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("ingredient %d not found", ingredientID)).
			WithDetails(map[string]any{"ingredient_id": ingredientID})
	}
	return db.WrapStorage(err, pkgerrors.CodeInternal, "load ingredient")
}
