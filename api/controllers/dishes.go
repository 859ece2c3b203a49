package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/api/responses"
	"github.com/lumierecia/restaurant-pos/api/validators"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
)

type recipeReader interface {
	RecipeForDish(ctx context.Context, dishID int64) ([]models.DishIngredient, error)
}

type recipeLineView struct {
	IngredientID   int64           `json:"ingredient_id"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
}

type recipeView struct {
	DishID      int64            `json:"dish_id"`
	Ingredients []recipeLineView `json:"ingredients"`
}

// DishRecipe returns the per-unit ingredient bill for one dish.
func DishRecipe(recipes recipeReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dishID, err := validators.ParsePathID(r, "dishID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := recipes.RecipeForDish(r.Context(), dishID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view := recipeView{DishID: dishID, Ingredients: make([]recipeLineView, 0, len(lines))}
		for _, line := range lines {
			view.Ingredients = append(view.Ingredients, recipeLineView{IngredientID: line.IngredientID, QuantityNeeded: line.QuantityNeeded})
		}
		responses.WriteSuccess(w, view)
	}
}
