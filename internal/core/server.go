// Package core provides the API chassis for the Presskit service: a chi
// router with the cross-cutting middleware chain (recovery, request IDs,
// logging, CORS, metrics, session auth) applied before requests reach the
// domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"presskit/internal/config"
	"presskit/internal/types"
)

// IdentityResolver resolves a bearer token to a live session.
// Implemented by auth.SessionValidator.
type IdentityResolver interface {
	Validate(ctx context.Context, token, identityHint string) (*types.Session, error)
}

// RequestMetrics records per-request telemetry. Implemented by
// observability.Metrics; nil disables recording.
type RequestMetrics interface {
	RecordRequestLatency(ctx context.Context, route string, duration time.Duration)
}

// RouteRegistrar mounts one handler's routes onto a router subtree. Handlers
// expose a RegisterRoutes method matching this signature; main.go collects
// them here to avoid import cycles between core and the handler packages.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies for the HTTP API and owns the router.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Resolver  IdentityResolver
	Metrics   RequestMetrics

	// PublicRouteRegistrars mount unauthenticated surfaces: media kit pages,
	// public collab submission, and the billing webhook.
	PublicRouteRegistrars []RouteRegistrar

	// V1RouteRegistrars mount creator-facing routes under /v1, behind the
	// session auth middleware.
	V1RouteRegistrars []RouteRegistrar

	// HealthProbes are checked by GET /health.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer initializes the server chassis. Routes are mounted separately via
// MountRoutes so tests can register their own.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
