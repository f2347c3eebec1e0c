package api

import (
	"github.com/gin-gonic/gin"

	"casilleros-backend/internal/service"
)

// ListBlocks handles GET /api/bloques.
func (h *Handler) ListBlocks(c *gin.Context) {
	respond(c, h.svc.ListBlocks(c.Request.Context()))
}

// CreateBlock handles POST /api/bloques.
func (h *Handler) CreateBlock(c *gin.Context) {
	var in service.CreateBlockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond(c, service.InvalidBody(err))
		return
	}
	respond(c, h.svc.CreateBlock(c.Request.Context(), in))
}

// DeleteBlock handles DELETE /api/bloques/:id.
func (h *Handler) DeleteBlock(c *gin.Context) {
	respond(c, h.svc.DeleteBlock(c.Request.Context(), pathID(c, "id")))
}
