package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports basic liveness for load balancers and probes.
type HealthHandler struct{}

// NewHealthHandler constructs a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
