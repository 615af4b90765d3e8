package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// ReadyCheck is a named dependency check for /readyz and the gRPC health service.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

// RunChecks runs every check concurrently, each under its own timeout, and returns the
// failures as "name: error" in the order the checks were given.
func RunChecks(ctx context.Context, timeout time.Duration, checks ...ReadyCheck) []string {
	results := make([]string, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		if c.Check == nil {
			continue
		}
		wg.Add(1)
		go func(i int, c ReadyCheck) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := c.Check(checkCtx); err != nil {
				name := c.Name
				if name == "" {
					name = "dependency"
				}
				results[i] = name + ": " + err.Error()
			}
		}(i, c)
	}
	wg.Wait()

	var failures []string
	for _, r := range results {
		if r != "" {
			failures = append(failures, r)
		}
	}
	return failures
}

type readiness struct {
	Status   string   `json:"status"`
	Failures []string `json:"failures,omitempty"`
}

// NewBaseMuxWithReady serves /healthz (liveness, always ok) and /readyz (all checks).
func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeReadiness(w, http.StatusOK, readiness{Status: "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if failures := RunChecks(r.Context(), 2*time.Second, checks...); len(failures) > 0 {
			writeReadiness(w, http.StatusServiceUnavailable, readiness{Status: "unavailable", Failures: failures})
			return
		}
		writeReadiness(w, http.StatusOK, readiness{Status: "ok"})
	})
	return mux
}

func writeReadiness(w http.ResponseWriter, status int, body readiness) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
