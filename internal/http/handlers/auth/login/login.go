// Package login реализует HTTP-обработчик входа оператора в консоль.
//
// Обработчик декодирует и валидирует учётные данные, делегирует вход
// клиенту внешнего API, создаёт сессию консоли и выставляет cookie с её
// идентификатором. При включённом "запомнить меня" пара токенов сессии
// зеркалируется в долговременное хранилище.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/apartment-console/internal/config"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/lib/jwt"
	"github.com/magabrotheeeer/apartment-console/internal/lib/roles"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

// Handler обрабатывает HTTP-запросы входа в консоль.
type Handler struct {
	log      *slog.Logger
	client   Service
	registry *session.Registry
	cookie   config.Session
	validate *validator.Validate
}

// Service описывает интерфейс аутентификации во внешнем API.
type Service interface {
	Login(ctx context.Context, sess *session.Manager, username, password string, persist bool) (*jwt.Claims, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service, registry *session.Registry, cookie config.Session) *Handler {
	return &Handler{
		log:      log,
		client:   client,
		registry: registry,
		cookie:   cookie,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход оператора
// @Description Аутентифицирует оператора во внешнем API панели и создаёт сессию консоли.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.LoginRequest true "Учетные данные оператора"
// @Success 200 {object} map[string]any "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.LoginRequest
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

	sess := h.registry.Create()
	claims, err := h.client.Login(r.Context(), sess, req.Username, req.Password, req.Remember)
	if err != nil {
		if upstream.IsStatus(err, http.StatusUnauthorized) {
			log.Error("invalid credentials", slog.String("username", req.Username))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))
			return
		}
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("authentication service unavailable"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    sess.ID(),
		Path:     "/",
		MaxAge:   int(h.cookie.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	data := map[string]any{"username": req.Username}
	if claims != nil {
		data["username"] = claims.Username
		data["roles"] = claims.Roles
		data["role"] = roles.HighestRole(claims.Roles)
	}

	log.Info("login success", slog.String("username", req.Username),
		slog.String("session_id", sess.ID()), slog.Bool("remember", req.Remember))
	render.JSON(w, r, response.StatusOKWithData(data))
}
