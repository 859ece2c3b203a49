package middleware

import (
	"context"

	"github.com/lumierecia/restaurant-pos/pkg/enums"
)

type contextKey string

const (
	ctxEmployeeID contextKey = "employee_id"
	ctxRole       contextKey = "employee_role"
)

// EmployeeIDFromContext returns the authenticated employee, or 0.
func EmployeeIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxEmployeeID).(int64); ok {
		return v
	}
	return 0
}

func RoleFromContext(ctx context.Context) enums.EmployeeRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.EmployeeRole); ok {
		return v
	}
	return ""
}

// WithEmployee seeds the acting employee into ctx.
func WithEmployee(ctx context.Context, employeeID int64, role enums.EmployeeRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxEmployeeID, employeeID)
	return context.WithValue(ctx, ctxRole, role)
}
