package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/lumierecia/restaurant-pos/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	EmployeeID int64
	Role       enums.EmployeeRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to terminals.
type AccessTokenClaims struct {
	EmployeeID int64              `json:"employee_id"`
	Role       enums.EmployeeRole `json:"role"`
	jwt.RegisteredClaims
}
