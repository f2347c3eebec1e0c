package api

import (
	"github.com/gin-gonic/gin"
)

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	respond(c, h.svc.Health(c.Request.Context()))
}

// Stats handles GET /api/estadisticas.
func (h *Handler) Stats(c *gin.Context) {
	respond(c, h.svc.Stats(c.Request.Context()))
}
