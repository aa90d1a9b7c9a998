package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/abalone/internal/abalone"
)

type matchSource interface {
	Snapshot() abalone.Snapshot
}

type Server struct {
	logger *slog.Logger
	match  matchSource
	srv    *http.Server
}

func New(logger *slog.Logger, match matchSource) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		match:  match,
	}

	server.srv = &http.Server{
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	return server
}

// Router exposes the health check, the match snapshot and metrics.
func (that *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Get("/ping", that.ping)
	router.Get("/match", that.snapshot)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// Start serves until Shutdown is called. It returns at once when Shutdown came first.
func (that *Server) Start(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	if err = that.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
