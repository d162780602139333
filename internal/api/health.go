package api

import (
	"net/http"
	"time"

	"github.com/stine-ri/wings-of-memory/internal/api/respond"
)

// HealthSource reports service health; health.ServiceHealthChecker satisfies it.
type HealthSource interface {
	IsHealthy() bool
	Components() map[string]bool
}

type HealthHandler struct{ src HealthSource }

func NewHealthHandler(src HealthSource) *HealthHandler { return &HealthHandler{src: src} }

// CheckHealth handles GET /api/health. It answers 200 when healthy and 503
// otherwise; a nil source counts as healthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	var components map[string]bool
	if h.src != nil {
		components = h.src.Components()
		if !h.src.IsHealthy() {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
