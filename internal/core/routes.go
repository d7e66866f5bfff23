package core

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// defaultRequestTimeout is the soft deadline applied to request contexts.
const defaultRequestTimeout = 29 * time.Second

// MountRoutes registers the global middleware chain and the route groups.
//
// Middleware order:
//  1. Recoverer       - outermost, catches all panics
//  2. ContextTimeout  - soft request deadline
//  3. RequestID       - correlation ID for logs and outbound trace headers
//  4. SecurityHeaders - present on every response, including errors
//  5. RequestLogger   - structured logging with redacted headers
//  6. CORS            - browser access for the app frontend
//  7. Metrics         - request latency recording
//
// Session auth applies only to the /v1 group; the public group (media kit
// pages, collab submission, the billing webhook) is reachable without a
// session by design.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(defaultRequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
	s.router.Use(s.MetricsMiddleware)

	s.router.Get("/health", s.HandleHealth)

	s.router.Group(func(r chi.Router) {
		for _, registrar := range s.PublicRouteRegistrars {
			registrar(r)
		}
	})

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(s.AuthMiddleware)
		for _, registrar := range s.V1RouteRegistrars {
			registrar(r)
		}
	})
}

func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Server.CorsAllowedOrigins) > 0 {
		return s.Config.Server.CorsAllowedOrigins
	}
	return []string{"*"}
}
