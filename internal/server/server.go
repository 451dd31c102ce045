// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and
// routes. This is the composition root: every dependency is assembled here,
// in one place, rather than scattered across the codebase.
//
// DEPENDENCY INJECTION FLOW:
// main.go creates: Config → Server
// Server.New() creates:
//
//	sqlite.DB → AuthService / EntitlementService → handlers
//	TokenService / PasswordService ↗    payment.Client ↗
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete sqlite.DB), handlers get services.
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
	"github.com/go-chi/httprate"

	"github.com/sakif/toolkit-portal/internal/auth"
	"github.com/sakif/toolkit-portal/internal/config"
	"github.com/sakif/toolkit-portal/internal/handler"
	"github.com/sakif/toolkit-portal/internal/middleware"
	"github.com/sakif/toolkit-portal/internal/payment"
	sqliteRepo "github.com/sakif/toolkit-portal/internal/repository/sqlite"
	"github.com/sakif/toolkit-portal/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection; it is closed during graceful
// shutdown to flush the WAL and release the file lock.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config, wiring the entire
// dependency chain.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /health                   → liveness probe
//	POST /auth/register            → create account        (3/min per IP)
//	POST /auth/login               → issue access token    (5/min per IP)
//	GET  /user/profile             → profile + subscription [bearer]
//	POST /payment/create-checkout  → Stripe checkout URL    [bearer]
//	GET  /download/app             → download grant         [bearer]
//	GET  /download/app/file        → artifact               [download token]
//	POST /webhook/stripe           → event ingestion        (100/min per IP)
//
// MIDDLEWARE ORDER MATTERS:
// RequestID → RealIP → Recoverer → request logging → CORS. RealIP must run
// before the rate limiters so they key on the real client address, not the
// reverse proxy's.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	payments := payment.New(s.config.StripeSecretKey, s.config.StripeWebhookSecret)

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	entitlementService := service.NewEntitlementService(s.db.Subscriptions(), tokens, s.config.StripeTestMode, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(authService, entitlementService, s.logger)
	paymentHandler := handler.NewPaymentHandler(payments, s.db.Subscriptions(), s.logger)
	downloadHandler := handler.NewDownloadHandler(entitlementService, tokens, s.config.ArtifactPath, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "Origin", "X-Requested-With"},
		AllowCredentials: true,
	}))

	s.router.Get("/health", handler.HandleHealth)

	// === Public auth routes ===
	// Tight per-IP limits: registration and login are the endpoints worth
	// brute-forcing, so they get their own buckets.
	s.router.Route("/auth", func(r chi.Router) {
		r.With(httprate.LimitByIP(3, time.Minute)).Post("/register", authHandler.HandleRegister)
		r.With(httprate.LimitByIP(5, time.Minute)).Post("/login", authHandler.HandleLogin)
	})

	// === Bearer-protected routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/user/profile", userHandler.HandleProfile)
		r.Post("/payment/create-checkout", paymentHandler.HandleCreateCheckout)
		r.Get("/download/app", downloadHandler.HandleDownload)
	})

	// The artifact URL authenticates via its embedded download token, not a
	// bearer header.
	s.router.Get("/download/app/file", downloadHandler.HandleFile)

	// High limit: legitimate webhook traffic bursts when Stripe retries.
	s.router.With(httprate.LimitByIP(100, time.Minute)).
		Post("/webhook/stripe", paymentHandler.HandleWebhook)

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// Write timeout must cover streaming the app artifact on a slow
		// link, not just JSON responses.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("stripeTestMode", s.config.StripeTestMode),
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
