// Package middlewarectx содержит HTTP middleware консоли: привязку сессии
// оператора по cookie, проверку роли администратора и ограничение частоты
// запросов.
//
// SessionMiddleware находит сессию по cookie, убеждается, что в ней есть
// access токен, и кладёт менеджер сессии и claims токена в контекст запроса
// для дальнейшего использования в обработчиках. В случае отсутствия cookie
// или токена возвращает HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/jwt"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// Session — ключ менеджера сессии в контексте
	Session Key = "session"
	// Claims — ключ claims access токена в контексте
	Claims Key = "claims"
)

// SessionMiddleware возвращает HTTP middleware, который привязывает запрос
// к сессии оператора по cookie cookieName.
//
// Если сессия существует и содержит access токен, менеджер сессии и claims
// токена добавляются в контекст запроса, иначе возвращается ошибка с HTTP
// статусом 401 Unauthorized.
func SessionMiddleware(registry *session.Registry, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Error("missing session cookie")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			sess := registry.Get(r.Context(), cookie.Value)
			token := sess.Token(r.Context())
			if token == "" {
				log.Error("session has no token", slog.String("session_id", sess.ID()))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("session expired, login required"))
				return
			}

			claims := jwt.Parse(token)
			if claims == nil {
				log.Error("session token is malformed", slog.String("session_id", sess.ID()))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("session expired, login required"))
				return
			}

			ctx := context.WithValue(r.Context(), Session, sess)
			ctx = context.WithValue(ctx, Claims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom извлекает менеджер сессии из контекста запроса.
func SessionFrom(ctx context.Context) *session.Manager {
	sess, _ := ctx.Value(Session).(*session.Manager)
	return sess
}

// ClaimsFrom извлекает claims access токена из контекста запроса.
func ClaimsFrom(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(Claims).(*jwt.Claims)
	return claims
}
