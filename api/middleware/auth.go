package middleware

import (
	"net/http"
	"strings"

	"github.com/lumierecia/restaurant-pos/api/responses"
	pkgAuth "github.com/lumierecia/restaurant-pos/pkg/auth"
	"github.com/lumierecia/restaurant-pos/pkg/config"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// acting employee.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithEmployee(r.Context(), claims.EmployeeID, claims.Role)
			if logg != nil {
				ctx = logg.WithEmployeeID(ctx, claims.EmployeeID)
				ctx = logg.WithField(ctx, "employee_role", string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
