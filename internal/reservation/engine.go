package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/internal/ledger"
	"github.com/lumierecia/restaurant-pos/internal/recipes"
	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
)

// Engine decrements ingredient stock for an order under row locks.
type Engine struct {
	ledger ledger.Repository
}

func NewEngine(repo ledger.Repository) (*Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &Engine{ledger: repo}, nil
}

type lockedRow struct {
	ingredient *models.Ingredient
	required   decimal.Decimal
}

// Reserve must run inside the caller's transaction. Rows are locked in
// ascending ingredient id so concurrent placements cannot deadlock, and every
// row is checked before any is written: on a shortfall nothing has changed
// and the caller rolls back. Each decrement is also guarded on the stored
// quantity, so a row that moved despite the lock still fails as a shortfall.
// On success one usage movement per ingredient is appended and returned in id
// order.
func (e *Engine) Reserve(ctx context.Context, tx *gorm.DB, orderID int64, reqs recipes.Requirements, actorID int64) ([]models.IngredientMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation requires an open transaction")
	}
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if actorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor employee id is required")
	}
	if len(reqs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no ingredient requirements")
	}

	repo := e.ledger.WithTx(tx)
	ids := reqs.IngredientIDs()

	locked := make([]lockedRow, 0, len(ids))
	for _, id := range ids {
		required := reqs[id]
		if !required.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("requirement for ingredient %d must be positive", id))
		}
		ingredient, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return nil, ledger.MapLookupError(err, id)
		}
		if ingredient.QuantityInStock.LessThan(required) {
			return nil, pkgerrors.NewInsufficientStock(id, required, ingredient.QuantityInStock)
		}
		locked = append(locked, lockedRow{ingredient: ingredient, required: required})
	}

	movements := make([]models.IngredientMovement, 0, len(locked))
	for _, row := range locked {
		id := row.ingredient.ID
		next := row.ingredient.QuantityInStock.Sub(row.required)
		err := repo.DecrementStock(ctx, id, row.required, next)
		if errors.Is(err, ledger.ErrStockChanged) {
			return nil, shortfallAfterLock(ctx, repo, id, row)
		}
		if err != nil {
			return nil, wrapWrite(err, fmt.Sprintf("decrement ingredient %d", id))
		}
		movement := ledger.NewUsage(id, orderID, actorID, row.required)
		if err := repo.AppendMovement(ctx, &movement); err != nil {
			return nil, wrapWrite(err, fmt.Sprintf("record usage for ingredient %d", id))
		}
		movements = append(movements, movement)
	}
	return movements, nil
}

// shortfallAfterLock reports the stock the guarded decrement found, falling
// back to the locked read when the row cannot be reloaded.
func shortfallAfterLock(ctx context.Context, repo ledger.Repository, id int64, row lockedRow) error {
	available := row.ingredient.QuantityInStock
	if current, err := repo.FindByID(ctx, id); err == nil {
		available = current.QuantityInStock
	}
	return pkgerrors.NewInsufficientStock(id, row.required, available)
}

func wrapWrite(err error, msg string) error {
	return db.WrapStorage(err, pkgerrors.CodeWriteFailed, msg)
}
