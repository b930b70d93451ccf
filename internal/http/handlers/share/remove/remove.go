// Package remove реализует HTTP-обработчик удаления доли. Проценты
// оставшихся участников не перераспределяются: оператор корректирует их
// вручную, недобор до 100 подсвечивается на экране.
package remove

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

// Handler обрабатывает HTTP-запросы удаления доли.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс удаления доли.
type Service interface {
	RemoveShareholder(ctx context.Context, sess *session.Manager, apartmentID, shareID int) (*models.Apartment, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.remove"

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

	sess := middlewarectx.SessionFrom(r.Context())
	apartment, err := h.service.RemoveShareholder(r.Context(), sess, apartmentID, shareID)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("shareholder removed", slog.Int("apartment_id", apartmentID), slog.Int("share_id", shareID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"apartment":       apartment,
		"shares_balanced": apartment.SharesBalanced(),
	}))
}
