// Package add реализует HTTP-обработчик добавления участника к апартаменту.
// Проценты всех участников перераспределяются поровну, сумма после операции
// всегда равна 100.
package add

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

// Handler обрабатывает HTTP-запросы добавления участника.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс операций над долями.
type Service interface {
	AddShareholder(ctx context.Context, sess *session.Manager, apartmentID, userID int) (*models.Apartment, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.add"

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

	var req models.AddShareholderRequest
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
	apartment, err := h.service.AddShareholder(r.Context(), sess, apartmentID, req.UserID)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("shareholder added", slog.Int("apartment_id", apartmentID), slog.Int("user_id", req.UserID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"apartment":       apartment,
		"shares_balanced": apartment.SharesBalanced(),
	}))
}
