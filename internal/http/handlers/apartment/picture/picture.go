// Package picture реализует HTTP-обработчик загрузки изображения
// апартамента. Тело запроса уходит во внешний API без пересборки, с
// исходным Content-Type (обычно multipart/form-data).
package picture

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// maxPictureBytes — предел размера загружаемого изображения.
const maxPictureBytes = 10 << 20

// Handler обрабатывает HTTP-запросы загрузки изображения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс загрузки изображения апартамента.
type Service interface {
	UploadPicture(ctx context.Context, sess *session.Manager, id int, body []byte, contentType string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.apartment.picture"

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

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPictureBytes))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, response.Error("picture is too large"))
		return
	}

	sess := middlewarectx.SessionFrom(r.Context())
	if err := h.service.UploadPicture(r.Context(), sess, id, body, r.Header.Get("Content-Type")); err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("picture uploaded", slog.Int("apartment_id", id), slog.Int("size", len(body)))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
