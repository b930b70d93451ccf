// Package update реализует HTTP-обработчик правки апартамента.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Handler обрабатывает HTTP-запросы правки апартамента.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс правки апартамента.
type Service interface {
	Update(ctx context.Context, sess *session.Manager, id int, req models.UpdateApartmentRequest) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.apartment.update"

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

	var req models.UpdateApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sess := middlewarectx.SessionFrom(r.Context())
	if err := h.service.Update(r.Context(), sess, id, req); err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("apartment updated", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
