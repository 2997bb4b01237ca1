package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/eleven-am/voicestream/internal/session"
	"github.com/labstack/echo/v4"
)

const probeTimeout = 2 * time.Second

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// Probe checks one external dependency; a nil error means reachable.
type Probe func(ctx context.Context) error

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines    int    `json:"goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

type Response struct {
	Status         Status                     `json:"status"`
	Timestamp      time.Time                  `json:"timestamp"`
	UptimeSeconds  int64                      `json:"uptime_seconds"`
	ActiveSessions int                        `json:"active_sessions"`
	Runtime        RuntimeStats               `json:"runtime"`
	Components     map[string]ComponentStatus `json:"components,omitempty"`
}

type Handler struct {
	registry    *session.Registry
	engineProbe Probe
	started     time.Time
}

func NewHandler(registry *session.Registry, engineProbe Probe) *Handler {
	return &Handler{
		registry:    registry,
		engineProbe: engineProbe,
		started:     time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)
}

func (h *Handler) handleHealth(c echo.Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := StatusHealthy
	var components map[string]ComponentStatus
	if h.engineProbe != nil {
		engine := h.checkEngine(c.Request().Context())
		components = map[string]ComponentStatus{"engine": engine}
		if engine.Status != StatusHealthy {
			status = StatusDegraded
		}
	}

	return c.JSON(http.StatusOK, Response{
		Status:         status,
		Timestamp:      time.Now(),
		UptimeSeconds:  int64(time.Since(h.started).Seconds()),
		ActiveSessions: h.registry.Len(),
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: mem.Alloc / 1024 / 1024,
			NumGC:         mem.NumGC,
		},
		Components: components,
	})
}

func (h *Handler) checkEngine(ctx context.Context) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	if err := h.engineProbe(ctx); err != nil {
		return ComponentStatus{
			Status:    StatusDegraded,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     err.Error(),
		}
	}
	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}
