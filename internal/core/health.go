package core

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// healthCheckTimeout bounds the total time spent probing dependencies.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is one dependency check run by GET /health.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

// componentStatus is the health state of a single dependency.
type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs the registered probes concurrently. 200 when every probe
// passes within the deadline, 503 otherwise. Mounted publicly at GET /health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	results := make([]error, len(s.HealthProbes))
	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range s.HealthProbes {
		g.Go(func() error {
			results[i] = probe.Check(gctx)
			return nil
		})
	}
	_ = g.Wait()

	components := make(map[string]componentStatus, len(s.HealthProbes))
	allHealthy := true
	for i, probe := range s.HealthProbes {
		if err := results[i]; err != nil {
			allHealthy = false
			components[probe.Name()] = componentStatus{Status: "unhealthy", Message: err.Error()}
		} else {
			components[probe.Name()] = componentStatus{Status: "healthy"}
		}
	}

	resp := healthResponse{Components: components}
	if allHealthy {
		resp.Status = "healthy"
		JSON(w, r, http.StatusOK, resp)
		return
	}
	resp.Status = "unhealthy"
	JSON(w, r, http.StatusServiceUnavailable, resp)
}
