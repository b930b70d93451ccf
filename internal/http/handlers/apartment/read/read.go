// Package read реализует HTTP-обработчик чтения одного апартамента.
package read

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

// Handler обрабатывает HTTP-запросы чтения апартамента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения апартамента.
type Service interface {
	Get(ctx context.Context, sess *session.Manager, id int) (*models.Apartment, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.apartment.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid apartment id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid apartment id"))
		return
	}

	sess := middlewarectx.SessionFrom(r.Context())
	apartment, err := h.service.Get(r.Context(), sess, id)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"apartment":       apartment,
		"shares_balanced": apartment.SharesBalanced(),
	}))
}
