// Package server is the wiring layer: it assembles the dependency graph
// (DB → repositories → services → handlers), defines every route, and owns
// the HTTP server lifecycle including graceful shutdown.
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

	"github.com/sakif/bookshelf/internal/auth"
	"github.com/sakif/bookshelf/internal/handler"
	"github.com/sakif/bookshelf/internal/middleware"
	sqliteRepo "github.com/sakif/bookshelf/internal/repository/sqlite"
	"github.com/sakif/bookshelf/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port           int
	DBPath         string
	StaticDir      string   // optional; static file serving is skipped when empty
	SessionSecret  string   // HMAC secret for session tokens, required
	AllowedOrigins []string // CORS origins for the browser client

	// GitHub OAuth app credentials. All three empty → OAuth routes are
	// not registered and the service is credentials-only.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires the whole dependency chain:
//
//	sqlite.DB → services (auth, library, book) → handlers → routes
//
// Each layer receives only what it needs; handlers never see the DB.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes configures middleware, assembles the services and handlers,
// and registers every route.
//
// The authentication gate is the route-group structure itself: the
// allow-list (signup, login, logout, public book listing, static assets)
// lives outside the RequireAuth group, everything else inside it. CORS runs
// before the gate, so preflights pass unconditionally.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true, // the session cookie must survive CORS
		MaxAge:           300,
	}))

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// Dependency chain: *sqlite.DB satisfies all three repository
	// interfaces, so it is handed to each service directly.
	passwords := auth.NewPasswordService()
	authService := service.NewAuthService(s.db, passwords, s.logger)
	libraryService := service.NewLibraryService(s.db, s.db, s.logger)
	bookService := service.NewBookService(s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authService, libraryService, tokens, github, s.logger)
	libraryHandler := handler.NewLibraryHandler(libraryService, s.logger)
	bookHandler := handler.NewBookHandler(bookService, s.logger)

	if s.config.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	s.router.Route("/api", func(r chi.Router) {
		// Open access: the allow-list.
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		// Session check and the public catalog read identify the caller
		// when a cookie is present but never reject.
		r.With(auth.OptionalAuth(tokens)).Get("/user_session", authHandler.HandleSession)
		r.With(auth.OptionalAuth(tokens)).Get("/books", bookHandler.HandleList)

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/libraries", libraryHandler.HandleList)
			r.Post("/libraries", libraryHandler.HandleCreate)
			r.Get("/libraries/{id}", libraryHandler.HandleGet)
			r.Patch("/libraries/{id}", libraryHandler.HandleRename)
			r.Delete("/libraries/{id}", libraryHandler.HandleDelete)

			r.Post("/libraries/{id}/books", libraryHandler.HandleAddBook)
			r.Patch("/libraries/{libraryID}/books/{bookID}", libraryHandler.HandleRateBook)
			r.Delete("/libraries/{libraryID}/books/{bookID}", libraryHandler.HandleRemoveBook)

			r.Post("/books", bookHandler.HandleCreate)
			r.Get("/many_ratings/{count}", bookHandler.HandleManyRatings)
			r.Get("/min_rating/{rating}", bookHandler.HandleMinRating)
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30s and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

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

// Router exposes the assembled router for httptest-based tests.
func (s *Server) Router() http.Handler {
	return s.router
}
