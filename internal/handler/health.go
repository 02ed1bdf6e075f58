package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/segyhp/league-ledger/pkg/response"
)

// Check pings one dependency for readiness.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []Check
	timeout time.Duration
}

func NewHealthHandler(timeout time.Duration, checks ...Check) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: timeout,
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health performs a basic health check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	})
}

// Ready pings every configured dependency
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			status.Status = "error"
			status.Checks[check.Name] = "failed: " + err.Error()
			continue
		}
		status.Checks[check.Name] = "ok"
	}

	if status.Status == "error" {
		response.ServiceUnavailable(w, "Service not ready", status)
		return
	}

	response.Success(w, status)
}
