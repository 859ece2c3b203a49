package middleware

import (
	"net/http"

	"github.com/lumierecia/restaurant-pos/api/responses"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
)

// RequireRole admits employees holding any of roles.
func RequireRole(logg *logger.Logger, roles ...enums.EmployeeRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.EmployeeRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
