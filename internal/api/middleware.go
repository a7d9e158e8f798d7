package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/code3452/api-yamdb/internal/access"
)

// ContextKey используется для ключей в контексте запроса.
type ContextKey string

// actorKey - ключ, под которым middleware кладет access.Actor в контекст.
const actorKey ContextKey = "actor"

// ActorMiddleware определяет действующее лицо запроса по заголовку
// Authorization. Отсутствие заголовка - не ошибка: в контекст кладется
// анонимный Actor, а решение о доступе принимают предикаты пакета access
// в обработчиках. Некорректный или просроченный токен отклоняется сразу.
func (h *Handler) ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			ctx := context.WithValue(r.Context(), actorKey, access.Anonymous())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Ожидаем токен в формате "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			h.logger.WarnContext(r.Context(), "Invalid Authorization header format")
			h.respondError(w, r, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		claims, err := h.tokenManager.Validate(parts[1])
		if err != nil {
			h.logger.WarnContext(r.Context(), "Invalid or expired token", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		actor := access.Actor{
			ID:            claims.UserID,
			Username:      claims.Username,
			Role:          claims.Role,
			IsSuperuser:   claims.IsSuperuser,
			Authenticated: true,
		}
		h.logger.DebugContext(r.Context(), "Token validated successfully",
			slog.String("userID", actor.ID), slog.String("role", actor.Role))

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth пропускает только аутентифицированные запросы. Применяется
// после ActorMiddleware.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := actorFromContext(r.Context()); !actor.Authenticated {
			h.respondError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actorFromContext возвращает действующее лицо запроса. Если middleware
// не отработал, возвращается анонимный Actor.
func actorFromContext(ctx context.Context) access.Actor {
	if actor, ok := ctx.Value(actorKey).(access.Actor); ok {
		return actor
	}
	return access.Anonymous()
}
