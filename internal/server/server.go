// Package server wires the application together: configuration, the
// database, the session store, the services, and the chi route tree.
//
// It is the composition root. Everything below it receives its
// dependencies through constructors; nothing below it reads the
// environment or opens connections on its own.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/yuta/grassuma/internal/auth"
	"github.com/yuta/grassuma/internal/catalog"
	"github.com/yuta/grassuma/internal/github"
	"github.com/yuta/grassuma/internal/handler"
	"github.com/yuta/grassuma/internal/middleware"
	sqliteRepo "github.com/yuta/grassuma/internal/repository/sqlite"
	"github.com/yuta/grassuma/internal/service"
	"github.com/yuta/grassuma/internal/session"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	FrontendURL        string
	SessionTTL         time.Duration

	// DebugEndpoints mounts /api/debug/* when true. Never enable in
	// production: add_points mints currency outside the ledger.
	DebugEndpoints bool
}

// Server owns the router and the process-lifetime resources (database,
// session sweeper). Both are released during graceful shutdown.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *session.MemoryStore
}

// New assembles the full dependency chain:
//
//	sqlite.DB → services (ledger, uma, auth) → handlers → routes
//
// The species catalog is seeded here, before any request is served, so
// the discovery pool is never empty because of a missing migration step.
// Seeding is idempotent; every boot runs it.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	species, err := catalog.Load()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading species catalog: %w", err)
	}
	if err := db.SeedSpecies(context.Background(), species); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding species catalog: %w", err)
	}
	logger.Info("species catalog seeded", slog.Int("species", len(species)))

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: session.NewMemoryStore(cfg.SessionTTL),
	}

	if err := s.setupRoutes(); err != nil {
		s.sessions.Close()
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds the middleware chain and the route tree.
//
// Middleware order: RequestID → RealIP → Recoverer → CORS → request log.
// Auth is per-group, not global — the catalog and the OAuth dance must
// work for anonymous visitors.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	githubProvider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)
	contributions := github.NewClient()

	authService := service.NewAuthService(githubProvider, s.db, s.sessions, tokens, s.config.SessionTTL, s.logger)
	ledgerService := service.NewLedgerService(s.db, contributions, s.logger)
	umaService := service.NewUMAService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(githubProvider, authService, s.config.FrontendURL, s.logger)
	syncHandler := handler.NewSyncHandler(ledgerService)
	umaHandler := handler.NewUMAHandler(umaService)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.FrontendURL))
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.sessions))
			r.Post("/logout", authHandler.HandleLogout)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		// The encyclopedia page lists species before login.
		r.Get("/uma/species", umaHandler.HandleListSpecies)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.sessions))

			r.Get("/user", authHandler.HandleMe)
			r.Post("/sync", syncHandler.HandleSync)
			r.Get("/uma/discoveries", umaHandler.HandleListDiscoveries)
			r.Post("/uma/discover", umaHandler.HandleDiscover)
			r.Post("/uma/feed", umaHandler.HandleFeed)

			if s.config.DebugEndpoints {
				debugHandler := handler.NewDebugHandler(umaService)
				r.Get("/debug/add_points", debugHandler.HandleAddPoints)
				r.Post("/debug/reset", debugHandler.HandleReset)
			}
		})
	})

	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "grassuma-api",
		"endpoints": []string{
			"GET  /health",
			"GET  /auth/github",
			"GET  /api/user",
			"POST /api/sync",
			"GET  /api/uma/species",
			"GET  /api/uma/discoveries",
			"POST /api/uma/discover",
			"POST /api/uma/feed",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests, stops the session sweeper, and closes the database. Closing
// the database last flushes the WAL and releases the file lock.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.sessions.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("debugEndpoints", s.config.DebugEndpoints),
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
