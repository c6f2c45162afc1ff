package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/v1/services"
)

// HealthHandler reports service health
type HealthHandler struct {
	service services.HealthService
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service services.HealthService, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version}
}

// Health handles GET /health
//
// @Summary Service health
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	checks := h.service.Check(c.Request.Context())

	status, code := "healthy", http.StatusOK
	for _, result := range checks {
		if result != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"version":   h.version,
		"checks":    checks,
		"timestamp": time.Now().Unix(),
	})
}
