package recipes

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
)

// Repository reads menu dishes and their recipe lines. Menu data is owned
// elsewhere; nothing here writes it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDishes(ctx context.Context, dishIDs []int64) ([]models.Dish, error)
	ListByDishIDs(ctx context.Context, dishIDs []int64) ([]models.DishIngredient, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindDishes(ctx context.Context, dishIDs []int64) ([]models.Dish, error) {
	var dishes []models.Dish
	if len(dishIDs) == 0 {
		return dishes, nil
	}
	if err := r.db.WithContext(ctx).
		Where("dish_id IN ?", dishIDs).
		Order("dish_id ASC").
		Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) ListByDishIDs(ctx context.Context, dishIDs []int64) ([]models.DishIngredient, error) {
	var lines []models.DishIngredient
	if len(dishIDs) == 0 {
		return lines, nil
	}
	if err := r.db.WithContext(ctx).
		Where("dish_id IN ?", dishIDs).
		Order("dish_id ASC, ingredient_id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
