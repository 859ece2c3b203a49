package cron

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
	"github.com/lumierecia/restaurant-pos/pkg/outbox/payloads"
)

const defaultAlertCooldown = 12 * time.Hour

type lowStockLister interface {
	LowStock(ctx context.Context) ([]models.Ingredient, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// alertGate suppresses repeat alerts for the same ingredient until the
// cooldown lapses.
type alertGate interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

type LowStockJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Ledger   lowStockLister
	Outbox   eventEmitter
	Gate     alertGate
	Cooldown time.Duration
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox required")
	}
	cooldown := params.Cooldown
	if cooldown <= 0 {
		cooldown = defaultAlertCooldown
	}
	return &lowStockJob{
		logg:     params.Logger,
		db:       params.DB,
		ledger:   params.Ledger,
		outbox:   params.Outbox,
		gate:     params.Gate,
		cooldown: cooldown,
	}, nil
}

type lowStockJob struct {
	logg     *logger.Logger
	db       txRunner
	ledger   lowStockLister
	outbox   eventEmitter
	gate     alertGate
	cooldown time.Duration
}

func (j *lowStockJob) Name() string { return "low-stock-alerts" }

func (j *lowStockJob) Run(ctx context.Context) error {
	ingredients, err := j.ledger.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}

	var errs error
	emitted, suppressed := 0, 0
	for _, ingredient := range ingredients {
		fire, err := j.shouldAlert(ctx, ingredient.ID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !fire {
			suppressed++
			continue
		}
		if err := j.emit(ctx, ingredient); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ingredient %d: %w", ingredient.ID, err))
			continue
		}
		emitted++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"below_minimum": len(ingredients),
		"emitted":       emitted,
		"suppressed":    suppressed,
	}), "low stock scan complete")
	return errs
}

func (j *lowStockJob) shouldAlert(ctx context.Context, ingredientID int64) (bool, error) {
	if j.gate == nil {
		return true, nil
	}
	key := j.gate.IdempotencyKey("low-stock", strconv.FormatInt(ingredientID, 10))
	ok, err := j.gate.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), j.cooldown)
	if err != nil {
		return false, fmt.Errorf("low stock gate %d: %w", ingredientID, err)
	}
	return ok, nil
}

func (j *lowStockJob) emit(ctx context.Context, ingredient models.Ingredient) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventIngredientLowStock,
			AggregateType: enums.AggregateIngredient,
			AggregateID:   ingredient.ID,
			Data: payloads.IngredientLowStockEvent{
				IngredientID:      ingredient.ID,
				Name:              ingredient.Name,
				Unit:              ingredient.Unit,
				QuantityInStock:   ingredient.QuantityInStock,
				MinimumStockLevel: ingredient.MinimumStockLevel,
			},
		})
	})
}
