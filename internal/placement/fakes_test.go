package placement

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/internal/recipes"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
)

type countingTx struct {
	calls int
}

func (c *countingTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	c.calls++
	return fn(&gorm.DB{})
}

type stubResolver struct{}

func (stubResolver) ResolveRequirements(context.Context, *gorm.DB, []recipes.Line) (recipes.Requirements, error) {
	return recipes.Requirements{}, nil
}

type stubReserver struct{}

func (stubReserver) Reserve(context.Context, *gorm.DB, int64, recipes.Requirements, int64) ([]models.IngredientMovement, error) {
	return nil, nil
}

type stubWriter struct{}

func (stubWriter) CreateHeader(context.Context, *gorm.DB, *models.Order) (int64, error) {
	return 1, nil
}

func (stubWriter) WriteLines(context.Context, *gorm.DB, int64, []models.OrderItem, []int64) error {
	return nil
}

type stubPublisher struct{}

func (stubPublisher) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
