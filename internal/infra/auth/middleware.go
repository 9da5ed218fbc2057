package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/guildkeeper/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator проверяет токен оператора консоли
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.OperatorClaims, error)
}

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFromContext возвращает claims, положенные в контекст middleware
func ClaimsFromContext(ctx context.Context) (*domain.OperatorClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*domain.OperatorClaims)
	return claims, ok
}

// NewMiddleware пропускает только запросы с валидным токеном и нужным scope.
// Пустой scope означает «любой валидный токен».
func NewMiddleware(v TokenValidator, scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if scope != "" && !claims.Scopes[scope] {
				logger.Warn("scope denied",
					zap.String("user_id", claims.UserID),
					zap.String("scope", scope),
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
