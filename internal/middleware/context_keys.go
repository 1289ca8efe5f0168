// Ключи контекста и геттеры для request_id, языка и user_id.
package middleware

import "context"

type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyLanguage  contextKey = "language"
	ContextKeyUserID    contextKey = "user_id" // заполняется AuthMiddleware
)

// UserIDFrom возвращает ID пользователя из контекста (после AuthMiddleware).
func UserIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyUserID).(string); ok {
		return v
	}
	return ""
}

// RequestIDFrom возвращает X-Request-ID из контекста.
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// LanguageFrom возвращает язык из контекста (Accept-Language); по умолчанию "ru".
func LanguageFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyLanguage).(string); ok {
		return v
	}
	return "ru"
}
