package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumierecia/restaurant-pos/api/middleware"
	"github.com/lumierecia/restaurant-pos/api/responses"
	"github.com/lumierecia/restaurant-pos/api/validators"
	"github.com/lumierecia/restaurant-pos/internal/ledger"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
	"github.com/lumierecia/restaurant-pos/pkg/pagination"
)

const maxNoteLen = 500

type ingredientView struct {
	ID                int64           `json:"ingredient_id"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	QuantityInStock   decimal.Decimal `json:"quantity_in_stock"`
	MinimumStockLevel decimal.Decimal `json:"minimum_stock_level"`
	Shortfall         decimal.Decimal `json:"shortfall"`
}

type movementView struct {
	ID             int64              `json:"transaction_id"`
	IngredientID   int64              `json:"ingredient_id"`
	Kind           enums.MovementKind `json:"transaction_type"`
	QuantityChange decimal.Decimal    `json:"quantity_change"`
	OrderID        *int64             `json:"order_id,omitempty"`
	EmployeeID     int64              `json:"employee_id"`
	Notes          string             `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type movementPageView struct {
	Movements  []movementView `json:"movements"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type restockRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
	Note     string          `json:"note"`
}

type adjustRequest struct {
	Delta decimal.Decimal `json:"delta" validate:"nonzero_decimal"`
	Note  string          `json:"note" validate:"required"`
}

func newMovementView(m models.IngredientMovement) movementView {
	return movementView{
		ID:             m.ID,
		IngredientID:   m.IngredientID,
		Kind:           m.Kind,
		QuantityChange: m.QuantityChange,
		OrderID:        m.OrderID,
		EmployeeID:     m.EmployeeID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

// LowStock lists ingredients below their reorder threshold.
func LowStock(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]ingredientView, 0, len(rows))
		for _, row := range rows {
			views = append(views, ingredientView{
				ID:                row.ID,
				Name:              row.Name,
				Unit:              row.Unit,
				QuantityInStock:   row.QuantityInStock,
				MinimumStockLevel: row.MinimumStockLevel,
				Shortfall:         row.MinimumStockLevel.Sub(row.QuantityInStock),
			})
		}
		responses.WriteSuccess(w, views)
	}
}

func Movements(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredientID, err := validators.ParsePathID(r, "ingredientID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Movements(r.Context(), ingredientID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view := movementPageView{Movements: make([]movementView, 0, len(page.Movements)), NextCursor: page.NextCursor}
		for _, m := range page.Movements {
			view.Movements = append(view.Movements, newMovementView(m))
		}
		responses.WriteSuccess(w, view)
	}
}

func Restock(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredientID, err := validators.ParsePathID(r, "ingredientID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req restockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movement, err := svc.Restock(r.Context(), ledger.RestockInput{
			IngredientID:    ingredientID,
			Quantity:        req.Quantity,
			ActorEmployeeID: middleware.EmployeeIDFromContext(r.Context()),
			Note:            validators.SanitizeString(req.Note, maxNoteLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMovementView(*movement))
	}
}

func Adjust(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredientID, err := validators.ParsePathID(r, "ingredientID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req adjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movement, err := svc.Adjust(r.Context(), ledger.AdjustInput{
			IngredientID:    ingredientID,
			Delta:           req.Delta,
			ActorEmployeeID: middleware.EmployeeIDFromContext(r.Context()),
			Note:            validators.SanitizeString(req.Note, maxNoteLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMovementView(*movement))
	}
}

// Reconcile checks stock against the ledger. opening is the stock figure
// before the first recorded movement.
func Reconcile(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredientID, err := validators.ParsePathID(r, "ingredientID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opening := decimal.Zero
		if raw := strings.TrimSpace(r.URL.Query().Get("opening")); raw != "" {
			opening, err = decimal.NewFromString(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "opening must be a decimal").WithDetails(map[string]any{"field": "opening"}))
				return
			}
		}
		result, err := svc.Reconcile(r.Context(), ingredientID, opening)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
