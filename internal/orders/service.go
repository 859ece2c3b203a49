package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
	"github.com/lumierecia/restaurant-pos/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// MovementLister reads the ledger rows an order generated.
type MovementLister interface {
	ListMovementsByOrder(ctx context.Context, orderID int64) ([]models.IngredientMovement, error)
}

// Service covers reads and header transitions of placed orders.
type Service interface {
	GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderSummary, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) (*OrderSummary, error)
}

type UpdateStatusInput struct {
	OrderID         int64
	Status          enums.OrderStatus
	ActorEmployeeID int64
	ActorRole       string
}

type MarkPaidInput struct {
	OrderID         int64
	ActorEmployeeID int64
	ActorRole       string
}

type service struct {
	repo      Repository
	movements MovementLister
	tx        txRunner
	outbox    outboxPublisher
	now       func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, movements MovementLister, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if movements == nil {
		return nil, fmt.Errorf("movement lister required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		movements: movements,
		tx:        tx,
		outbox:    outbox,
		now:       time.Now,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapOrderLookup(err, orderID)
	}
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "load order items")
	}
	assignments, err := s.repo.ListAssignments(ctx, orderID)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "load order assignments")
	}
	movements, err := s.movements.ListMovementsByOrder(ctx, orderID)
	if err != nil {
		return nil, db.WrapStorage(err, pkgerrors.CodeInternal, "load order movements")
	}
	return newOrderDetail(order, items, assignments, movements), nil
}

// UpdateStatus moves the order along the service lifecycle. Repeating the
// current status is a no-op. Cancelling does not return stock.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderSummary, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Status))
	}
	if input.ActorEmployeeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "employee identity missing")
	}

	var summary *OrderSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return mapOrderLookup(err, input.OrderID)
		}
		if order.Status == input.Status {
			summary = newOrderSummary(order)
			return nil
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Status))
		}
		if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return wrapStorage(err, "update order status")
		}

		from := order.Status
		order.Status = input.Status
		summary = newOrderSummary(order)
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(input.ActorEmployeeID, input.ActorRole),
			Data: payloads.OrderStatusChangedEvent{
				OrderID: order.ID,
				From:    from,
				To:      input.Status,
			},
		})
	})
	if err != nil {
		return nil, wrapStorage(err, "update order status")
	}
	return summary, nil
}

// MarkPaid flips payment status. Paying a paid order is a no-op; a cancelled
// order cannot be paid.
func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) (*OrderSummary, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorEmployeeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "employee identity missing")
	}

	var summary *OrderSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return mapOrderLookup(err, input.OrderID)
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			summary = newOrderSummary(order)
			return nil
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be paid")
		}
		if err := repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusPaid); err != nil {
			return wrapStorage(err, "update payment status")
		}

		order.PaymentStatus = enums.PaymentStatusPaid
		summary = newOrderSummary(order)
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(input.ActorEmployeeID, input.ActorRole),
			Data: payloads.OrderPaidEvent{
				OrderID:     order.ID,
				TotalAmount: order.TotalAmount,
				PaidAt:      s.now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, wrapStorage(err, "mark order paid")
	}
	return summary, nil
}

func mapOrderLookup(err error, orderID int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %d not found", orderID)).
			WithDetails(map[string]any{"order_id": orderID})
	}
	return db.WrapStorage(err, pkgerrors.CodeInternal, "load order")
}

func wrapStorage(err error, msg string) error {
	return db.WrapStorage(err, pkgerrors.CodeInternal, msg)
}

func buildActor(employeeID int64, role string) *outbox.ActorRef {
	return &outbox.ActorRef{EmployeeID: employeeID, Role: role}
}
