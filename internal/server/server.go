package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sundayezeilo/engagebot/internal/chat"
	"github.com/sundayezeilo/engagebot/internal/config"
	"github.com/sundayezeilo/engagebot/internal/docstore"
	"github.com/sundayezeilo/engagebot/internal/errx"
	"github.com/sundayezeilo/engagebot/internal/httpx"
)

// Poller delivers chat updates to a handler until ctx is cancelled.
type Poller interface {
	Run(ctx context.Context, h chat.Handler) error
}

// Server runs the update poller next to a small HTTP server for health checks.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	poller  Poller
	handler chat.Handler
	store   docstore.Store
	server  *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, poller Poller, handler chat.Handler, store docstore.Store) *Server {
	return &Server{
		config:  cfg,
		logger:  logger,
		poller:  poller,
		handler: handler,
		store:   store,
	}
}

// Start runs the poller and the HTTP server and blocks until a shutdown
// signal arrives, ctx is cancelled, or either of them fails.
func (s *Server) Start(ctx context.Context) error {
	mux := s.setupRoutes()
	handler := s.applyMiddleware(mux)
	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.config.Server.Host, s.config.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Listen for errors from the server
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server",
			"addr", s.server.Addr,
			"env", s.config.App.Environment,
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()

	pollerDone := make(chan error, 1)
	go func() {
		pollerDone <- s.poller.Run(pollCtx, s.handler)
	}()

	// Listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var runErr error
	select {
	case err := <-serverErrors:
		runErr = fmt.Errorf("server error: %w", err)

	case err := <-pollerDone:
		pollerDone = nil
		if err != nil {
			runErr = fmt.Errorf("poller error: %w", err)
		} else {
			runErr = errors.New("poller stopped unexpectedly")
		}

	case sig := <-shutdown:
		s.logger.Info("received shutdown signal", "signal", sig.String())

	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
	}

	stopPolling()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Let the update in flight finish before the store is closed.
	if pollerDone != nil {
		select {
		case <-pollerDone:
		case <-shutdownCtx.Done():
			s.logger.Warn("poller did not stop before the shutdown timeout")
		}
	}

	if runErr == nil {
		s.logger.Info("server stopped gracefully")
	}
	return runErr
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /x/health", s.healthCheckHandler)

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger), // Outermost: catch panics
		httpx.RequestID,          // Add request ID
		httpx.Logger(s.logger),   // Log requests
	)(handler)
}

// healthCheckHandler reports whether the document store can be read.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.checkStore(r.Context()); err != nil {
		status := httpx.WriteKindError(w, err, "storage backend is not reachable",
			map[string]string{"storage": s.store.Backend()})
		s.logger.WarnContext(r.Context(), "health check failed",
			"request_id", httpx.GetRequestID(r.Context()),
			"error", err.Error(),
			"error_kind", errx.KindOf(err),
			"status", status,
		)
		return
	}

	httpx.WriteHealthy(w, s.config.App.Environment, s.store.Backend())
}

func (s *Server) checkStore(ctx context.Context) error {
	const op = "server.checkStore"

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := s.store.Read(ctx, s.config.Storage.LinksDocument)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
