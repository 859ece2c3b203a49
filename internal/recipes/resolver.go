package recipes

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
)

// Line is one dish and how many servings were ordered.
type Line struct {
	DishID   int64
	Quantity int
}

// Requirements maps ingredient id to the total quantity an order consumes.
type Requirements map[int64]decimal.Decimal

// IngredientIDs returns the keys in ascending order.
func (r Requirements) IngredientIDs() []int64 {
	ids := make([]int64, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resolver expands dish lines into aggregate ingredient requirements.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("recipe repository required")
	}
	return &Resolver{repo: repo}, nil
}

// ResolveRequirements sums quantity_needed x servings per ingredient across
// all lines. It only reads; pass the open transaction as tx so the reads see
// the same snapshot as the writes that follow, or nil to use the base handle.
// A dish that is missing, or has no recipe lines, is NotFound.
func (r *Resolver) ResolveRequirements(ctx context.Context, tx *gorm.DB, lines []Line) (Requirements, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one dish is required")
	}
	repo := r.repo.WithTx(tx)

	dishIDs := make([]int64, 0, len(lines))
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if line.DishID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish id must be positive")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for dish %d must be positive", line.DishID))
		}
		if _, ok := seen[line.DishID]; ok {
			continue
		}
		seen[line.DishID] = struct{}{}
		dishIDs = append(dishIDs, line.DishID)
	}

	dishes, err := repo.FindDishes(ctx, dishIDs)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "load dishes")
	}
	known := make(map[int64]struct{}, len(dishes))
	for _, dish := range dishes {
		known[dish.ID] = struct{}{}
	}

	recipeLines, err := repo.ListByDishIDs(ctx, dishIDs)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "load recipes")
	}
	byDish := make(map[int64][]models.DishIngredient, len(dishIDs))
	for _, rl := range recipeLines {
		byDish[rl.DishID] = append(byDish[rl.DishID], rl)
	}

	for _, id := range dishIDs {
		if _, ok := known[id]; !ok {
			return nil, notFound(fmt.Sprintf("dish %d not found", id), id)
		}
		if len(byDish[id]) == 0 {
			return nil, notFound(fmt.Sprintf("dish %d has no recipe", id), id)
		}
	}

	reqs := make(Requirements)
	for _, line := range lines {
		servings := decimal.NewFromInt(int64(line.Quantity))
		for _, rl := range byDish[line.DishID] {
			reqs[rl.IngredientID] = reqs[rl.IngredientID].Add(rl.QuantityNeeded.Mul(servings))
		}
	}
	return reqs, nil
}

// RecipeForDish returns the recipe lines of one dish.
func (r *Resolver) RecipeForDish(ctx context.Context, dishID int64) ([]models.DishIngredient, error) {
	if dishID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish id must be positive")
	}
	dishes, err := r.repo.FindDishes(ctx, []int64{dishID})
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "load dish")
	}
	if len(dishes) == 0 {
		return nil, notFound(fmt.Sprintf("dish %d not found", dishID), dishID)
	}
	lines, err := r.repo.ListByDishIDs(ctx, []int64{dishID})
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "load recipe")
	}
	return lines, nil
}

func notFound(msg string, dishID int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, msg).WithDetails(map[string]any{"dish_id": dishID})
}
