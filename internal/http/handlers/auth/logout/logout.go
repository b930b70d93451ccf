// Package logout реализует HTTP-обработчик выхода оператора из консоли.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/apartment-console/internal/config"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Handler обрабатывает HTTP-запросы выхода из консоли.
type Handler struct {
	log      *slog.Logger
	registry *session.Registry
	cookie   config.Session
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry *session.Registry, cookie config.Session) *Handler {
	return &Handler{log: log, registry: registry, cookie: cookie}
}

// ServeHTTP завершает сессию: стирает пару токенов из памяти и из
// долговременного хранилища и гасит cookie. Реплики шлюза, разделяющие
// хранилище, деавторизуют эту сессию при следующем обращении.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if cookie, err := r.Cookie(h.cookie.CookieName); err == nil && cookie.Value != "" {
		h.registry.Drop(r.Context(), cookie.Value)
		log.Info("session dropped", slog.String("session_id", cookie.Value))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	render.JSON(w, r, response.StatusOKWithData(nil))
}
