// Package apierr переводит ошибки сервисного слоя в HTTP-ответы консоли
// единым образом для всех обработчиков.
package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/shares"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

// Write записывает err в ответ: истёкшая сессия — 401, нарушения правил
// долей — 422, ошибка внешнего API — её собственный статус, остальное — 500.
func Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, upstream.ErrSessionExpired):
		log.Error("session expired", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("session expired, login required"))

	case errors.Is(err, shares.ErrAlreadyParticipant),
		errors.Is(err, shares.ErrOverAllocated),
		errors.Is(err, shares.ErrOutOfRange),
		errors.Is(err, shares.ErrNotFound):
		log.Error("share rule violated", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(trimOp(err).Error()))

	default:
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			log.Error("panel API returned error", sl.Err(err), sl.Status(apiErr.StatusCode))
			render.Status(r, apiErr.StatusCode)
			render.JSON(w, r, response.Error(apiErr.Message))
			return
		}
		log.Error("request failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
	}
}

// trimOp снимает обёртки fmt.Errorf, оставляя исходную ошибку правила.
func trimOp(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}
