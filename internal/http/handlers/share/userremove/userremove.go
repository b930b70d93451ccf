// Package userremove реализует HTTP-обработчик удаления доли пользователя.
// Проценты остальных участников апартамента не перераспределяются.
package userremove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Handler обрабатывает HTTP-запросы удаления доли пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс операций над долями пользователя.
type Service interface {
	RemoveUserShare(ctx context.Context, sess *session.Manager, userID, shareID int) (*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.userremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid user id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}
	shareID, err := strconv.Atoi(chi.URLParam(r, "shareId"))
	if err != nil {
		log.Error("invalid share id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid share id"))
		return
	}

	sess := middlewarectx.SessionFrom(r.Context())
	user, err := h.service.RemoveUserShare(r.Context(), sess, userID, shareID)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("user share removed", slog.Int("user_id", userID), slog.Int("share_id", shareID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"user": user}))
}
