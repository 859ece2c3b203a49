package orders

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/api/middleware"
	"github.com/lumierecia/restaurant-pos/api/responses"
	"github.com/lumierecia/restaurant-pos/api/validators"
	internalorders "github.com/lumierecia/restaurant-pos/internal/orders"
	"github.com/lumierecia/restaurant-pos/internal/placement"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
)

// Placer is the order placement entry point.
type Placer interface {
	PlaceOrder(ctx context.Context, candidate placement.Candidate, items []placement.Item, employeeIDs []int64, actorEmployeeID int64) (int64, error)
}

type placeOrderRequest struct {
	CustomerID    int64               `json:"customer_id" validate:"required,gt=0"`
	OrderType     enums.OrderType     `json:"order_type" validate:"required"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Items         []placeOrderItem    `json:"items" validate:"required,min=1,dive"`
	// EmployeeIDs defaults to the acting employee.
	EmployeeIDs []int64 `json:"employee_ids" validate:"omitempty,dive,gt=0"`
}

type placeOrderItem struct {
	DishID    int64           `json:"dish_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type updateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// Place runs order placement and answers with the committed order.
func Place(placer Placer, svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if placer == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order placement unavailable"))
			return
		}
		actor := middleware.EmployeeIDFromContext(r.Context())
		if actor <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "employee identity missing"))
			return
		}

		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]placement.Item, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, placement.Item{DishID: item.DishID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
		}
		employees := req.EmployeeIDs
		if len(employees) == 0 {
			employees = []int64{actor}
		}

		orderID, err := placer.PlaceOrder(r.Context(), placement.Candidate{
			CustomerID:    req.CustomerID,
			OrderType:     req.OrderType,
			Status:        req.Status,
			PaymentStatus: req.PaymentStatus,
		}, items, employees, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			// the order is committed; answer with the id alone
			logg.Warn(logg.WithOrderID(r.Context(), orderID), "placed order could not be reloaded")
			responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int64{"order_id": orderID})
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:         orderID,
			Status:          req.Status,
			ActorEmployeeID: middleware.EmployeeIDFromContext(r.Context()),
			ActorRole:       string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func Pay(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.MarkPaid(r.Context(), internalorders.MarkPaidInput{
			OrderID:         orderID,
			ActorEmployeeID: middleware.EmployeeIDFromContext(r.Context()),
			ActorRole:       string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
