package domain

import "github.com/golang-jwt/jwt/v5"

// ScopeOps: право на доступ к операторскому API.
const ScopeOps = "ops"

type OperatorClaims struct {
	UserID string          `json:"user_id"`
	Scopes map[string]bool `json:"scopes"` // "ops": true
	jwt.RegisteredClaims
}
