// Package me реализует HTTP-обработчик профиля текущего оператора.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/roles"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Handler обрабатывает HTTP-запросы профиля оператора.
type Handler struct {
	log    *slog.Logger
	client Service
}

// Service описывает интерфейс получения профиля из внешнего API.
type Service interface {
	Me(ctx context.Context, sess *session.Manager) (*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service) *Handler {
	return &Handler{log: log, client: client}
}

// ServeHTTP возвращает полный профиль оператора вместе с его удзялами
// и наивысшей ролью.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sess := middlewarectx.SessionFrom(r.Context())
	user, err := h.client.Me(r.Context(), sess)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": user,
		"role": roles.HighestRole(user.Roles),
	}))
}
