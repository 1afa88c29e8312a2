// Package core provides the HTTP chassis for the property alert service.
// It builds a chi router that serves both a local HTTP listener and Lambda
// function URL invocations, and applies the cross-cutting middleware that
// runs before the alert handlers.
package core

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"propertyalerts/internal/config"
)

// RouteRegistrar mounts handlers onto a router group.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies for the API. Optional collaborators are
// exported fields set between NewServer and MountRoutes.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator

	RateLimitStore RateLimitStore
	Metrics        LatencyRecorder
	HealthProbes   []HealthProbe

	// RootRouteRegistrars mount outside /v1 (the legacy process endpoint).
	RootRouteRegistrars []RouteRegistrar
	V1RouteRegistrars   []RouteRegistrar

	// Closers are released on Shutdown in order.
	Closers []func() error

	router *chi.Mux
}

func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router for http.Server and the Lambda adapter.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases pooled resources. All closers run; the first error wins.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")

	var first error
	for _, closeFn := range s.Closers {
		if err := closeFn(); err != nil {
			s.Logger.ErrorContext(ctx, "error closing resource", "error", err)
			if first == nil {
				first = err
			}
		}
	}
	if first != nil {
		return first
	}

	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
