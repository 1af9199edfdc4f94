// Package reqctx хранит значения запроса в контексте под типизированными ключами.
package reqctx

import (
	"context"

	"github.com/athebyme/travel-admin/pkg/models"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	traceIDKey
	principalKey
	tokenKey
)

// WithRequestID добавляет ID запроса в контекст
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID возвращает ID запроса или пустую строку
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTraceID добавляет ID трассировки в контекст
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceID возвращает ID трассировки или пустую строку
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// WithPrincipal добавляет пользователя в контекст
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom возвращает пользователя из контекста
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok && p != nil
}

// WithToken сохраняет bearer-токен оператора для запросов в бэкенд
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Token возвращает bearer-токен или пустую строку
func Token(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
