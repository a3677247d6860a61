package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Health statuses.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is one dependency check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

type healthReporter struct {
	service string
	version string
	started time.Time
	session pinger
}

func newHealthReporter(service, version string, store any) *healthReporter {
	r := &healthReporter{service: service, version: version, started: time.Now()}
	if p, ok := store.(pinger); ok {
		r.session = p
	}
	return r
}

// handle reports degraded, not unhealthy, when the session store is down:
// requests still succeed without session exclusions.
func (r *healthReporter) handle(c *gin.Context) {
	resp := HealthResponse{
		Status:  HealthStatusHealthy,
		Service: r.service,
		Version: r.version,
		Uptime:  time.Since(r.started).Truncate(time.Second).String(),
	}

	if r.session != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		start := time.Now()
		check := CheckResult{Status: HealthStatusHealthy}
		if err := r.session.Ping(ctx); err != nil {
			check.Status = HealthStatusUnhealthy
			check.Message = "session store unreachable"
			resp.Status = HealthStatusDegraded
		}
		check.Latency = time.Since(start).Truncate(time.Millisecond).String()
		resp.Checks = map[string]CheckResult{"session_store": check}
	}

	c.JSON(http.StatusOK, resp)
}
