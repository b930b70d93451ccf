// Package console предоставляет маршруты приложения консоли.
package console

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/apartment-console/internal/config"
	apartmentcreate "github.com/magabrotheeeer/apartment-console/internal/http/handlers/apartment/create"
	apartmentlist "github.com/magabrotheeeer/apartment-console/internal/http/handlers/apartment/list"
	apartmentpicture "github.com/magabrotheeeer/apartment-console/internal/http/handlers/apartment/picture"
	apartmentread "github.com/magabrotheeeer/apartment-console/internal/http/handlers/apartment/read"
	apartmentremove "github.com/magabrotheeeer/apartment-console/internal/http/handlers/apartment/remove"
	apartmentupdate "github.com/magabrotheeeer/apartment-console/internal/http/handlers/apartment/update"
	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/auth/resetpassword"
	shareadd "github.com/magabrotheeeer/apartment-console/internal/http/handlers/share/add"
	shareremove "github.com/magabrotheeeer/apartment-console/internal/http/handlers/share/remove"
	shareupdate "github.com/magabrotheeeer/apartment-console/internal/http/handlers/share/update"
	shareuseradd "github.com/magabrotheeeer/apartment-console/internal/http/handlers/share/useradd"
	shareuserremove "github.com/magabrotheeeer/apartment-console/internal/http/handlers/share/userremove"
	shareuserupdate "github.com/magabrotheeeer/apartment-console/internal/http/handlers/share/userupdate"
	"github.com/magabrotheeeer/apartment-console/internal/http/handlers/user/checkusername"
	usercreate "github.com/magabrotheeeer/apartment-console/internal/http/handlers/user/create"
	userlist "github.com/magabrotheeeer/apartment-console/internal/http/handlers/user/list"
	userread "github.com/magabrotheeeer/apartment-console/internal/http/handlers/user/read"
	userremove "github.com/magabrotheeeer/apartment-console/internal/http/handlers/user/remove"
	userupdate "github.com/magabrotheeeer/apartment-console/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/http/response"
	"github.com/magabrotheeeer/apartment-console/internal/services/apartments"
	"github.com/magabrotheeeer/apartment-console/internal/services/shareops"
	"github.com/magabrotheeeer/apartment-console/internal/services/users"
	"github.com/magabrotheeeer/apartment-console/internal/session"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	client *upstream.Client, registry *session.Registry,
	usersService *users.Service, apartmentsService *apartments.Service, sharesService *shareops.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	resetHandler := resetpassword.New(logger, client)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, client, registry, cfg.Session).ServeHTTP)
		r.Post("/password-reset/request", resetHandler.Request)
		r.Post("/password-reset/verify", resetHandler.Verify)
		r.Post("/password-reset/reset", resetHandler.Reset)

		// Группа с сессией консоли
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(registry, cfg.CookieName, logger))
			r.Use(middlewarectx.RateLimitMiddleware(rate.Limit(10), 30, logger))

			r.Post("/logout", logout.New(logger, registry, cfg.Session).ServeHTTP)
			r.Get("/me", me.New(logger, client).ServeHTTP)

			r.Get("/users", userlist.New(logger, usersService).ServeHTTP)
			r.Get("/users/{id}", userread.New(logger, usersService).ServeHTTP)
			r.Post("/users/check-username", checkusername.New(logger, usersService).ServeHTTP)
			r.Get("/apartments", apartmentlist.New(logger, apartmentsService).ServeHTTP)
			r.Get("/apartments/{id}", apartmentread.New(logger, apartmentsService).ServeHTTP)

			// Мутации доступны только администраторам
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Post("/users", usercreate.New(logger, usersService).ServeHTTP)
				r.Put("/users/{id}", userupdate.New(logger, usersService).ServeHTTP)
				r.Delete("/users/{id}", userremove.New(logger, usersService).ServeHTTP)

				r.Post("/users/{id}/shares", shareuseradd.New(logger, sharesService).ServeHTTP)
				r.Put("/users/{id}/shares/{shareId}", shareuserupdate.New(logger, sharesService).ServeHTTP)
				r.Delete("/users/{id}/shares/{shareId}", shareuserremove.New(logger, sharesService).ServeHTTP)

				r.Post("/apartments", apartmentcreate.New(logger, apartmentsService).ServeHTTP)
				r.Put("/apartments/{id}", apartmentupdate.New(logger, apartmentsService).ServeHTTP)
				r.Delete("/apartments/{id}", apartmentremove.New(logger, apartmentsService).ServeHTTP)
				r.Post("/apartments/{id}/picture", apartmentpicture.New(logger, apartmentsService).ServeHTTP)

				r.Post("/apartments/{id}/shareholders", shareadd.New(logger, sharesService).ServeHTTP)
				r.Put("/apartments/{id}/shareholders/{shareId}", shareupdate.New(logger, sharesService).ServeHTTP)
				r.Delete("/apartments/{id}/shareholders/{shareId}", shareremove.New(logger, sharesService).ServeHTTP)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.StatusOKWithData(map[string]string{"status": "healthy"}))
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
