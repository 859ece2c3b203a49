package placement

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/internal/recipes"
	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
	"github.com/lumierecia/restaurant-pos/pkg/metrics"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
	"github.com/lumierecia/restaurant-pos/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type requirementResolver interface {
	ResolveRequirements(ctx context.Context, tx *gorm.DB, lines []recipes.Line) (recipes.Requirements, error)
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, orderID int64, reqs recipes.Requirements, actorID int64) ([]models.IngredientMovement, error)
}

type orderWriter interface {
	CreateHeader(ctx context.Context, tx *gorm.DB, order *models.Order) (int64, error)
	WriteLines(ctx context.Context, tx *gorm.DB, orderID int64, items []models.OrderItem, employeeIDs []int64) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service places orders. Every placement is one transaction: the header,
// stock deductions, usage movements, lines and the order_placed event commit
// together or not at all.
type Service struct {
	tx          txRunner
	resolver    requirementResolver
	reserver    stockReserver
	writer      orderWriter
	outbox      outboxPublisher
	logg        *logger.Logger
	metrics     *metrics.PlacementMetrics
	timeout     time.Duration
	lockTimeout time.Duration
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logg *logger.Logger) Option {
	return func(s *Service) { s.logg = logg }
}

func WithMetrics(m *metrics.PlacementMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout bounds a whole placement, lock waits included. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLockTimeout bounds each row-lock wait on dialects that support it.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) { s.lockTimeout = d }
}

// NewService builds the placement service.
func NewService(tx txRunner, resolver requirementResolver, reserver stockReserver, writer orderWriter, publisher outboxPublisher, opts ...Option) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("recipe resolver required")
	}
	if reserver == nil {
		return nil, fmt.Errorf("stock reserver required")
	}
	if writer == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	s := &Service{
		tx:       tx,
		resolver: resolver,
		reserver: reserver,
		writer:   writer,
		outbox:   publisher,
		logg:     logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PlaceOrder validates the candidate without touching the database, then
// runs the placement transaction and returns the committed order id.
func (s *Service) PlaceOrder(ctx context.Context, candidate Candidate, items []Item, employeeIDs []int64, actorEmployeeID int64) (int64, error) {
	start := s.now()
	p, err := buildPlan(candidate, items, employeeIDs, actorEmployeeID)
	if err != nil {
		s.observe(err, start)
		return 0, err
	}
	ctx = s.logg.WithEmployeeID(ctx, actorEmployeeID)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var orderID int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := db.SetLockTimeout(tx, s.lockTimeout.Milliseconds()); err != nil {
			return err
		}

		reqs, err := s.resolver.ResolveRequirements(ctx, tx, p.lines)
		if err != nil {
			return err
		}

		header := p.header
		id, err := s.writer.CreateHeader(ctx, tx, &header)
		if err != nil {
			return err
		}

		movements, err := s.reserver.Reserve(ctx, tx, id, reqs, actorEmployeeID)
		if err != nil {
			return err
		}

		if err := s.writer.WriteLines(ctx, tx, id, p.items, p.employees); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, s.placedEvent(header, id, p, movements, actorEmployeeID)); err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		err = classify(err)
		s.observe(err, start)
		s.logFailure(ctx, err)
		return 0, err
	}

	s.observe(nil, start)
	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, orderID), map[string]any{
		"items":        len(p.items),
		"total_amount": p.header.TotalAmount.String(),
	}), "order placed")
	return orderID, nil
}

func (s *Service) placedEvent(header models.Order, orderID int64, p *plan, movements []models.IngredientMovement, actorID int64) outbox.DomainEvent {
	items := make([]payloads.OrderPlacedItem, 0, len(p.items))
	for _, item := range p.items {
		items = append(items, payloads.OrderPlacedItem{
			DishID:      item.DishID,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
		})
	}
	usage := make([]payloads.IngredientUsage, 0, len(movements))
	for _, m := range movements {
		usage = append(usage, payloads.IngredientUsage{
			IngredientID: m.IngredientID,
			Quantity:     m.QuantityChange.Neg(),
		})
	}
	placedAt := header.OrderDatetime
	if placedAt.IsZero() {
		placedAt = s.now()
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &outbox.ActorRef{EmployeeID: actorID},
		Data: payloads.OrderPlacedEvent{
			OrderID:     orderID,
			CustomerID:  header.CustomerID,
			OrderType:   header.OrderType,
			TotalAmount: header.TotalAmount,
			Items:       items,
			EmployeeIDs: p.employees,
			Usage:       usage,
			PlacedAt:    placedAt.UTC(),
		},
	}
}

// classify keeps typed errors and sorts the rest into retryable persistence
// faults and internal failures.
func classify(err error) error {
	return db.WrapStorage(err, pkgerrors.CodeInternal, "place order")
}

func (s *Service) observe(err error, start time.Time) {
	elapsed := s.now().Sub(start)
	if err == nil {
		s.metrics.Observe(metrics.OutcomePlaced, elapsed)
		return
	}
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.Observe(strings.ToLower(string(code)), elapsed)
	if shortfall, ok := pkgerrors.AsInsufficientStock(err); ok {
		s.metrics.IncInsufficientStock(strconv.FormatInt(shortfall.IngredientID, 10))
	}
}

func (s *Service) logFailure(ctx context.Context, err error) {
	typed := pkgerrors.As(err)
	ctx = s.logg.WithField(ctx, "error_code", string(typed.Code()))
	switch typed.Code() {
	case pkgerrors.CodeInsufficientStock, pkgerrors.CodeNotFound, pkgerrors.CodeValidation:
		s.logg.Warn(s.logg.WithField(ctx, "reason", typed.Message()), "order placement rejected")
	default:
		s.logg.Error(ctx, "order placement failed", err)
	}
}
