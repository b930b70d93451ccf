// Package list реализует HTTP-обработчик списка апартаментов с поиском,
// вкладками по признаку счёт-фактуры, сортировкой и пагинацией.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/listquery"
	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/listing"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Handler обрабатывает HTTP-запросы списка апартаментов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка апартаментов.
type Service interface {
	List(ctx context.Context, sess *session.Manager, st listing.State) (listing.Page[models.Apartment], error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.apartment.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	st := listquery.State(r, "name")
	sess := middlewarectx.SessionFrom(r.Context())

	page, err := h.service.List(r.Context(), sess, st)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("apartments listed", slog.Int("total", page.TotalItems), slog.Int("page", st.Page))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"apartments":  page.Items,
		"total_items": page.TotalItems,
		"total_pages": page.TotalPages,
		"page":        st.Page,
	}))
}
