package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"casilleros-backend/internal/model"
	"casilleros-backend/internal/service"
)

type putSubscriptionRequest struct {
	Endpoint          string  `json:"endpoint"             binding:"required"`
	P256DH            string  `json:"p256dh"               binding:"required"`
	Auth              string  `json:"auth"                 binding:"required"`
	SubscribedLockers []int64 `json:"casilleros_suscritos"`
}

type subscriptionData struct {
	SubscribedLockers []int64 `json:"casilleros_suscritos"`
}

// PutSubscription creates or replaces a subscription and the set of lockers it
// follows.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, service.InvalidBody(err))
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	var lockers []*model.Locker
	err := h.store.DB().WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		if len(req.SubscribedLockers) > 0 {
			if err := tx.Find(&lockers, req.SubscribedLockers).Error; err != nil {
				return err
			}
		}

		return tx.Model(&subscription).Association("Lockers").Replace(&lockers)
	})
	if err != nil {
		h.log.Error("save subscription", zap.String("endpoint", req.Endpoint), zap.Error(err))
		respond(c, storeFailure(err, "Error guardando la suscripción"))
		return
	}

	respond(c, service.Response{
		Success: true,
		Data:    subscriptionData{SubscribedLockers: lockerIDs(lockers)},
		Message: "Suscripción guardada exitosamente",
	})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, service.InvalidBody(err))
		return
	}

	if err := h.store.DB().WithContext(c.Request.Context()).
		Delete(&model.PushSubscription{Endpoint: req.Endpoint}).Error; err != nil {
		h.log.Error("delete subscription", zap.String("endpoint", req.Endpoint), zap.Error(err))
		respond(c, storeFailure(err, "Error eliminando la suscripción"))
		return
	}

	respond(c, service.Response{Success: true, Message: "Suscripción eliminada exitosamente"})
}

// rawQueryParam returns a query value without URL decoding it. Push endpoints
// are stored exactly as the browser reported them.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription returns the lockers a subscription follows.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		respond(c, failure(service.KindValidation, "El endpoint es requerido", nil))
		return
	}

	var subscription model.PushSubscription
	if err := h.store.DB().WithContext(c.Request.Context()).
		Preload("Lockers").
		First(&subscription, "endpoint = ?", raw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond(c, failure(service.KindNotFound, "Suscripción no encontrada", err))
			return
		}
		respond(c, storeFailure(err, "Error obteniendo la suscripción"))
		return
	}

	respond(c, service.Response{
		Success: true,
		Data:    subscriptionData{SubscribedLockers: lockerIDs(subscription.Lockers)},
	})
}

func lockerIDs(lockers []*model.Locker) []int64 {
	ids := make([]int64, len(lockers))
	for i, l := range lockers {
		ids[i] = l.ID
	}
	return ids
}

func storeFailure(err error, fallback string) service.Response {
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	return failure(service.KindStore, msg, err)
}
