package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"conicore/internal/domain"
	"conicore/internal/engine"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	registry      *engine.Registry
	client        *http.Client
	healthTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. healthTimeoutSecs bounds
// each engine probe; 0 falls back to 3 seconds.
func NewHealthHandler(registry *engine.Registry, healthTimeoutSecs int) *HealthHandler {
	if healthTimeoutSecs <= 0 {
		healthTimeoutSecs = 3
	}
	return &HealthHandler{
		registry:      registry,
		client:        &http.Client{},
		healthTimeout: time.Duration(healthTimeoutSecs) * time.Second,
	}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. Configured OCR engines with a health URL
// are probed; the service stays ready even when engines are down, since
// the fallback producer still answers.
func (h *HealthHandler) Readiness(c *gin.Context) {
	engines := gin.H{}
	for _, d := range h.registry.ListProviders(domain.TaskOCR) {
		if d.HealthPath == "" {
			continue
		}
		engines[d.ID] = h.probe(c.Request.Context(), strings.TrimRight(d.Endpoint, "/")+d.HealthPath)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engines": engines})
}

func (h *HealthHandler) probe(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, h.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "error"
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return "healthy"
	}
	return "unhealthy"
}
