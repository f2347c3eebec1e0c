package api

import (
	"github.com/gin-gonic/gin"

	"casilleros-backend/internal/service"
)

// GetVAPIDPublicKey returns the VAPID public key browsers need to subscribe.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		respond(c, failure(service.KindUnavailable, "Las notificaciones no están configuradas", nil))
		return
	}

	respond(c, service.Response{
		Success: true,
		Data:    gin.H{"public_key": h.webpush.VAPIDPublicKey},
	})
}
