// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main hands it a config and a store, and New
// builds the services and handlers on top of them. Nothing below this
// package knows which store is in use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/config"
	"github.com/sakif/speakout/internal/handler"
	"github.com/sakif/speakout/internal/middleware"
	"github.com/sakif/speakout/internal/repository"
	"github.com/sakif/speakout/internal/repository/kv"
	sqliteRepo "github.com/sakif/speakout/internal/repository/sqlite"
	"github.com/sakif/speakout/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store. Start closes it after the HTTP server has
// drained, so pending writes are flushed before the process exits.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	auth    *service.AuthService
	reports *service.ReportService
}

// OpenStore opens the store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil

	case config.DriverRedis:
		backend, err := kv.ConnectRedis(ctx, kv.RedisConfig{
			Addr:   cfg.RedisAddr,
			DB:     cfg.RedisDB,
			Prefix: cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return kv.New(backend), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// New wires services and handlers on top of store.
//
//	store → AuthService, ReportService → AuthHandler, ReportHandler → routes
//
// Services get the repository interfaces, handlers get the services.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.Auth.BcryptCost)

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		auth:    service.NewAuthService(store, store, tokens, passwords, cfg.Auth.SessionTTL, logger),
		reports: service.NewReportService(store, store, passwords, logger),
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// Middleware order: RequestID first so the logger can see it, Recoverer
// inside the logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	health := handler.NewHealthHandler(s.store)
	s.router.Get("/healthz", health.HandleLiveness)
	s.router.Get("/readyz", health.HandleReadiness)
	s.router.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(s.auth, s.reports, s.config.Auth.CookieSecure, s.logger)
	reportHandler := handler.NewReportHandler(s.reports, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(s.auth))

			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/dashboard", reportHandler.HandleDashboard)
			r.Get("/stats", reportHandler.HandleStats)

			r.Get("/reports", reportHandler.HandleList)
			r.Post("/reports", reportHandler.HandleCreate)
			r.Get("/reports/{id}", reportHandler.HandleGet)
			r.Delete("/reports/{id}", reportHandler.HandleDelete)
		})
	})
}

// Start runs the HTTP server until SIGINT or SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
		// Multipart uploads of several attachments need more than the
		// usual few seconds to arrive.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.Store.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
