// Package create реализует HTTP-обработчик создания апартамента, при
// необходимости вместе с начальным набором долей владения.
//
// Создание не атомарно: если апартамент создан, а назначение долей не
// удалось, обработчик возвращает 207 Multi-Status с созданным апартаментом
// и предупреждением, чтобы оператор видел частичный успех.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/services/apartments"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Handler обрабатывает HTTP-запросы создания апартамента.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс создания апартамента.
type Service interface {
	Create(ctx context.Context, sess *session.Manager, req models.CreateApartmentRequest) (*models.Apartment, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.apartment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CreateApartmentRequest
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
	apartment, err := h.service.Create(r.Context(), sess, req)
	if err != nil {
		if errors.Is(err, apartments.ErrShareAssignment) && apartment != nil {
			log.Error("apartment created but shares failed", slog.Int("id", apartment.ID), sl.Err(err))
			render.Status(r, http.StatusMultiStatus)
			render.JSON(w, r, map[string]any{
				"status":    response.StatusError,
				"error":     "apartment created but share assignment failed",
				"apartment": apartment,
			})
			return
		}
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("apartment created", slog.Int("id", apartment.ID), slog.String("name", apartment.Name))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"apartment": apartment}))
}
