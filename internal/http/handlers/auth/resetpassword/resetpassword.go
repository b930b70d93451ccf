// Package resetpassword реализует HTTP-обработчики внеполосного
// восстановления пароля: запрос кода, проверку кода и установку нового
// пароля. Эндпоинты доступны без сессии консоли.
package resetpassword

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/models"
)

// Handler обрабатывает HTTP-запросы восстановления пароля.
type Handler struct {
	log      *slog.Logger
	client   Service
	validate *validator.Validate
}

// Service описывает интерфейс восстановления пароля во внешнем API.
type Service interface {
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, password string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service) *Handler {
	return &Handler{log: log, client: client, validate: validator.New()}
}

// Request запрашивает отправку кода восстановления на почту.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword.Request"
	log := h.logger(r, op)

	var req models.PasswordResetRequestBody
	if !h.decode(w, r, log, &req) {
		return
	}

	if err := h.client.RequestPasswordReset(r.Context(), req.Email); err != nil {
		apierr.Write(w, r, log, err)
		return
	}
	log.Info("password reset requested", slog.String("email", req.Email))
	render.JSON(w, r, response.StatusOKWithData(nil))
}

// Verify проверяет код восстановления.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword.Verify"
	log := h.logger(r, op)

	var req models.PasswordResetVerifyBody
	if !h.decode(w, r, log, &req) {
		return
	}

	if err := h.client.VerifyPasswordReset(r.Context(), req.Email, req.Code); err != nil {
		apierr.Write(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(nil))
}

// Reset завершает восстановление, устанавливая новый пароль.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword.Reset"
	log := h.logger(r, op)

	var req models.PasswordResetBody
	if !h.decode(w, r, log, &req) {
		return
	}

	if err := h.client.ResetPassword(r.Context(), req.Email, req.Code, req.Password); err != nil {
		apierr.Write(w, r, log, err)
		return
	}
	log.Info("password reset completed", slog.String("email", req.Email))
	render.JSON(w, r, response.StatusOKWithData(nil))
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}
