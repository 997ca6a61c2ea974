// Package server wires handlers, middleware and routes, and owns the HTTP
// server lifecycle. main.go stays minimal; everything the server needs is
// assembled here, in one composition root.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/auth"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/config"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/handler"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/middleware"
	sqliteRepo "github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository/sqlite"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/service"
)

// Server holds the router and the resources it owns. The database
// connection is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → services (auth, machines, configs, metrics, aggregates)
//	          → handlers → routes
//
// and seeds the initial admin account if one is configured.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and every route.
//
// Middleware order: RequestID → RealIP → Recoverer → logging →
// instrumentation → CORS → rate limit. RealIP must precede the rate
// limiter so buckets key on the true client address behind a proxy.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.JWTTTL)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()

	machineService := service.NewMachineService(s.db, s.logger)
	authService := service.NewAuthService(s.db, machineService, tokens, passwords, s.logger)
	configService := service.NewConfigService(machineService, s.db, s.logger)
	metricService := service.NewMetricService(machineService, s.db, s.logger)
	aggregateService := service.NewAggregateService(machineService, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	machineHandler := handler.NewMachineHandler(machineService, s.logger)
	configHandler := handler.NewConfigHandler(configService, s.logger)
	metricHandler := handler.NewMetricHandler(metricService, aggregateService, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Instrument)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	s.router.Use(middleware.NewRateLimiter(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow).Handler)

	s.router.Get("/", handler.HandleRoot)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HandleHealth)
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		// Everything below requires a valid machine-bound session token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Post("/machines", machineHandler.HandleCreate)
			r.Get("/machines", machineHandler.HandleList)

			r.Post("/update_confg_maquina", configHandler.HandleUpdate)
			r.Get("/machine/{mac}", configHandler.HandleGet)

			r.Put("/maquina/status", metricHandler.HandleSubmit)
			r.Get("/metrics/{mac}", metricHandler.HandleQuery)
			r.Get("/metrics/{mac}/aggregate", metricHandler.HandleAggregate)
		})
	})

	// Bootstrap account, if configured. Failing to seed is fatal: a
	// half-configured deployment should not come up looking healthy.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := authService.SeedInitialAdmin(ctx, s.cfg.InitialAdminEmail, s.cfg.InitialAdminPassword); err != nil {
		return fmt.Errorf("seeding initial admin: %w", err)
	}

	return nil
}

// Router exposes the configured router; tests drive it with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s,
// close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
