package dbtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
)

// Ingredient inserts an ingredient with the given stock and returns its id.
func Ingredient(t *testing.T, conn *gorm.DB, name string, stock, minimum string) int64 {
	t.Helper()
	row := models.Ingredient{
		Name:              name,
		Unit:              "g",
		QuantityInStock:   decimal.RequireFromString(stock),
		MinimumStockLevel: decimal.RequireFromString(minimum),
		CostPerUnit:       decimal.RequireFromString("1.00"),
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed ingredient %s: %v", name, err)
	}
	return row.ID
}

// Dish inserts a dish with a recipe keyed by ingredient id.
func Dish(t *testing.T, conn *gorm.DB, name, price string, recipe map[int64]string) int64 {
	t.Helper()
	dish := models.Dish{Name: name, Price: decimal.RequireFromString(price)}
	if err := conn.Create(&dish).Error; err != nil {
		t.Fatalf("seed dish %s: %v", name, err)
	}
	for ingredientID, qty := range recipe {
		line := models.DishIngredient{
			DishID:         dish.ID,
			IngredientID:   ingredientID,
			QuantityNeeded: decimal.RequireFromString(qty),
		}
		if err := conn.Create(&line).Error; err != nil {
			t.Fatalf("seed recipe %s/%d: %v", name, ingredientID, err)
		}
	}
	return dish.ID
}

// Stock reads the current on-hand quantity.
func Stock(t *testing.T, conn *gorm.DB, ingredientID int64) decimal.Decimal {
	t.Helper()
	var row models.Ingredient
	if err := conn.First(&row, "ingredient_id = ?", ingredientID).Error; err != nil {
		t.Fatalf("load ingredient %d: %v", ingredientID, err)
	}
	return row.QuantityInStock
}

// Count returns the number of rows in model's table.
func Count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
