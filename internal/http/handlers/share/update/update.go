// Package update реализует HTTP-обработчик ручной правки процента доли.
// Значение принимается, только если сумма долей апартамента не превысит 100;
// недобор до 100 допустим и лишь подсвечивается на экране.
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

// Handler обрабатывает HTTP-запросы правки процента доли.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс правки процента доли.
type Service interface {
	UpdatePercentage(ctx context.Context, sess *session.Manager, apartmentID, shareID, percent int) (*models.Apartment, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	apartmentID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid apartment id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid apartment id"))
		return
	}
	shareID, err := strconv.Atoi(chi.URLParam(r, "shareId"))
	if err != nil {
		log.Error("invalid share id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid share id"))
		return
	}

	var req models.UpdateSharePercentRequest
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
	apartment, err := h.service.UpdatePercentage(r.Context(), sess, apartmentID, shareID, req.Procent)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("share percentage updated",
		slog.Int("apartment_id", apartmentID), slog.Int("share_id", shareID), slog.Int("procent", req.Procent))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"apartment":       apartment,
		"shares_balanced": apartment.SharesBalanced(),
	}))
}
