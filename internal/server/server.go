package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
	"github.com/mihaisavezi/chatrelay/internal/config"
	"github.com/mihaisavezi/chatrelay/internal/handlers"
	"github.com/mihaisavezi/chatrelay/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

// Deps are the components the routes are served by.
type Deps struct {
	Relay    handlers.Streamer
	Tools    handlers.Executor
	Registry *catalog.Registry
}

type Server struct {
	config *config.Manager
	deps   Deps
	logger *slog.Logger
	server *http.Server
}

func New(configManager *config.Manager, deps Deps, logger *slog.Logger) *Server {
	return &Server{
		config: configManager,
		deps:   deps,
		logger: logger,
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Run(ctx)
}

// Run serves until ctx is done. In-flight streams get shutdownTimeout to
// finish.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.config.Get()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	s.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting server", "address", cfg.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler returns the routed handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	set := middleware.NewMiddlewareSet(s.logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(set.EdgeChain().Middlewares()...)

	health := handlers.NewHealthHandler(s.logger)
	r.Method(http.MethodGet, "/health", health)
	r.Method(http.MethodHead, "/health", health)

	r.Group(func(r chi.Router) {
		r.Use(set.DefaultChain().Middlewares()...)

		r.Method(http.MethodPost, "/chat", handlers.NewChatHandler(s.deps.Relay, s.logger))
		r.Method(http.MethodPost, "/tool", handlers.NewToolHandler(s.deps.Tools, s.logger))
		r.Method(http.MethodGet, "/models", handlers.NewModelsHandler(s.deps.Registry, s.logger))
	})

	return r
}
