// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст email и ключ сессии для дальнейшего
// использования в обработчиках. Перед передачей управления дальше middleware
// сверяет сессию с провайдером идентификации: это делает состояние сессии
// идемпотентным к повторным подтверждениям входа.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	libjwt "github.com/magabrotheeeer/insight-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/session"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// SessionKey — ключ сессии пользователя в контексте.
	SessionKey Key = "session_key"
	// Email — email пользователя в контексте.
	Email Key = "email"
)

// SessionReconciler сверяет сессию с подтверждённой личностью (session.Store).
type SessionReconciler interface {
	Reconcile(ctx context.Context, key string, event session.IdentityEvent) error
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет email и ключ сессии в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(maker libjwt.Maker, store SessionReconciler, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			// Сверка идемпотентна: повторное подтверждение того же входа
			// не меняет состояние сессии.
			if err := store.Reconcile(r.Context(), claims.SessionKey, session.IdentityEvent{
				Kind:  session.SignedIn,
				Email: claims.Email,
			}); err != nil {
				log.Error("failed to reconcile session", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, claims.SessionKey)
			ctx = context.WithValue(ctx, Email, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
