package api

import (
	"github.com/gin-gonic/gin"

	"casilleros-backend/internal/service"
)

// ListLockers handles GET /api/casilleros/:bloqueId.
func (h *Handler) ListLockers(c *gin.Context) {
	respond(c, h.svc.ListLockers(c.Request.Context(), pathID(c, "bloqueId")))
}

// CreateLocker handles POST /api/casilleros.
func (h *Handler) CreateLocker(c *gin.Context) {
	var in service.CreateLockerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond(c, service.InvalidBody(err))
		return
	}
	respond(c, h.svc.CreateLocker(c.Request.Context(), in))
}

// UpdateLocker handles PUT /api/casilleros/:id. An invalid id is reported
// before the body is looked at.
func (h *Handler) UpdateLocker(c *gin.Context) {
	id := pathID(c, "id")
	var in service.UpdateLockerInput
	if err := c.ShouldBindJSON(&in); err != nil && id > 0 {
		respond(c, service.InvalidBody(err))
		return
	}
	respond(c, h.svc.UpdateLockerState(c.Request.Context(), id, in))
}

// DeleteLocker handles DELETE /api/casilleros/:id.
func (h *Handler) DeleteLocker(c *gin.Context) {
	respond(c, h.svc.DeleteLocker(c.Request.Context(), pathID(c, "id")))
}
