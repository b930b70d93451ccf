// Package console собирает приложение консоли: подключение к redis,
// клиента внешнего API панели, сервисы экранов и HTTP-сервер.
package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/apartment-console/internal/cache"
	"github.com/magabrotheeeer/apartment-console/internal/config"
	"github.com/magabrotheeeer/apartment-console/internal/services/apartments"
	"github.com/magabrotheeeer/apartment-console/internal/services/shareops"
	"github.com/magabrotheeeer/apartment-console/internal/services/users"
	"github.com/magabrotheeeer/apartment-console/internal/session"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	cache  *cache.Cache
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	store := session.NewRedisStore(cacheRedis, cfg.SessionTTL)
	registry := session.NewRegistry(store, logger)

	client := upstream.New(cfg.BaseURL, cfg.TimeoutAPI, prometheus.DefaultRegisterer, logger)

	usersService := users.New(client, cacheRedis, logger)
	apartmentsService := apartments.New(client, cacheRedis, logger)
	sharesService := shareops.New(client, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, client, registry, usersService, apartmentsService, sharesService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		cache:  cacheRedis,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.cache.Db.Close()
		return err
	}
}
