package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/app"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	app    *app.App
	logger *zap.Logger
}

func NewServer(a *app.App) *Server {
	cfg, logger := a.Config, a.Logger

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := a.DB.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	session := a.SessionAuthorizer()

	publicLimit := func(next http.Handler) http.Handler { return next }
	if a.Redis != nil {
		publicLimit = custommiddleware.RateLimitMiddleware(a.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:public-clone",
		}, logger)
	} else {
		logger.Warn("Redis not configured, public clone endpoint is not rate limited")
	}

	cloneHandler := transport.NewCloneHandler(
		a.Orchestrator(service.VariantAdminJob, session),
		a.Orchestrator(service.VariantPublicJob, a.SharedSecretAuthorizer()),
		logger,
	)
	cloneHandler.RegisterRoutes(router, publicLimit)

	accountHandler := transport.NewAccountHandler(a.AccountSvc, a.AccountCloner, a.Inventory, logger)
	accountHandler.RegisterRoutes(router, custommiddleware.Authorize(session, logger))

	// Clone requests may run up to the clone timeout.
	writeTimeout := cfg.Clone.Timeout + 30*time.Second

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
		},
		app:    a,
		logger: logger,
	}
}

// Shutdown stops accepting requests, waits for in-flight ones, then closes connections
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	s.logger.Info("Closing server resources")
	s.app.Close()
	return err
}
