package auth

import (
	"net/http"
	"strings"

	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/models"
	"github.com/athebyme/travel-admin/pkg/reqctx"
)

// BearerToken извлекает токен из заголовка Authorization
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware промежуточное ПО для проверки bearer-токенов
func AuthMiddleware(validator interfaces.TokenValidator, logger interfaces.LoggerPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			tokenStr, ok := BearerToken(r)
			if !ok {
				http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
				return
			}

			principal, err := validator.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				logger.WarnWithContext(r.Context(), "Invalid bearer token",
					interfaces.LogField{Key: "error", Value: err.Error()})
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := reqctx.WithPrincipal(r.Context(), principal)
			ctx = reqctx.WithToken(ctx, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyRole проверяет наличие хотя бы одной роли из списка
func RequireAnyRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := reqctx.PrincipalFrom(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}
