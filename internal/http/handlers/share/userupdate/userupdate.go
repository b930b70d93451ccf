// Package userupdate реализует HTTP-обработчик ручной правки процента
// одной доли пользователя.
package userupdate

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

// Handler обрабатывает HTTP-запросы правки доли пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс операций над долями пользователя.
type Service interface {
	UpdateUserShare(ctx context.Context, sess *session.Manager, userID, shareID, percent int) (*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.userupdate"

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
	user, err := h.service.UpdateUserShare(r.Context(), sess, userID, shareID, req.Procent)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("user share updated",
		slog.Int("user_id", userID), slog.Int("share_id", shareID), slog.Int("procent", req.Procent))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"user": user}))
}
