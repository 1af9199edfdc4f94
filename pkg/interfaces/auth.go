package interfaces

import (
	"context"

	"github.com/athebyme/travel-admin/pkg/models"
)

// TokenValidator определяет интерфейс для проверки bearer-токенов
// Реализации: HMAC JWT от REST-бэкенда и Keycloak OIDC
type TokenValidator interface {
	// ValidateToken проверяет токен и возвращает пользователя с его ролью
	ValidateToken(ctx context.Context, token string) (*models.Principal, error)
}
