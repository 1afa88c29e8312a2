package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const healthCheckTimeout = 2 * time.Second

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every probe concurrently under a shared deadline and
// answers 200 when all pass, 503 otherwise. A probe still running at the
// deadline is reported as timed out.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "healthy"}
	if s.Config != nil {
		resp.Version = s.Config.Build.Version
	}

	probes := s.HealthProbes
	if len(probes) == 0 {
		JSON(w, r, http.StatusOK, resp)
		return
	}

	// Each goroutine writes only its own slot; done[i] is closed when slot i
	// is final.
	errs := make([]error, len(probes))
	done := make([]chan struct{}, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		done[i] = make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(done[i])
			defer func() {
				if rvr := recover(); rvr != nil {
					errs[i] = fmt.Errorf("probe panicked: %v", rvr)
				}
			}()
			errs[i] = p.Check(ctx)
		}()
	}

	all := make(chan struct{})
	go func() {
		wg.Wait()
		close(all)
	}()
	select {
	case <-all:
	case <-ctx.Done():
	}

	resp.Components = make(map[string]componentStatus, len(probes))
	status := http.StatusOK
	for i, p := range probes {
		var cs componentStatus
		select {
		case <-done[i]:
			if errs[i] != nil {
				cs = componentStatus{Status: "unhealthy", Message: errs[i].Error()}
			} else {
				cs = componentStatus{Status: "healthy"}
			}
		default:
			cs = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		}
		if cs.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		resp.Components[p.Name()] = cs
	}

	if status != http.StatusOK {
		resp.Status = "unhealthy"
	}
	JSON(w, r, status, resp)
}
