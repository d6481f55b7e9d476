package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/rs/zerolog"
)

// Pinger is a dependency whose reachability is part of readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// QueueLen reports the backlog of the autosave queue.
type QueueLen func(ctx context.Context) (int64, error)

// SystemHandler serves liveness and readiness probes.
type SystemHandler struct {
	deps      map[string]Pinger
	backlog   QueueLen
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. deps are pinged by Ready.
func NewSystemHandler(deps map[string]Pinger, backlog QueueLen, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		deps:      deps,
		backlog:   backlog,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
	})
}

// Ready godoc
// GET /ready
// Pings every dependency and reports the autosave backlog.
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
			checks[name] = "down"
			ready = false
			continue
		}
		checks[name] = "up"
	}

	body := gin.H{"checks": checks}
	if h.backlog != nil {
		if n, err := h.backlog(ctx); err == nil {
			body["autosave_backlog"] = n
		}
	}

	if !ready {
		body["status"] = "degraded"
		response.Success(c, http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ready"
	response.Success(c, http.StatusOK, body)
}
