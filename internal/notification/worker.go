package notification

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casilleros-backend/internal/model"
)

// queueFactor sizes the job buffer relative to the number of workers.
const queueFactor = 16

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool sends push notifications to the subscribers of a locker when it
// becomes available again.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*queueFactor),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.Named("notification"),
	}
}

// SetSender replaces the transport used to deliver notifications. It must be
// called before Start.
func (wp *WorkerPool) SetSender(sender NotificationSender) {
	wp.sender = sender
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := wp.log.With(zap.Int("worker", id))
	log.Debug("worker started")
	for {
		select {
		case lockerID := <-wp.jobs:
			log.Debug("processing locker", zap.Int64("locker_id", lockerID))
			wp.sendNotificationsForLocker(ctx, lockerID)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Dispatch queues a notification job for lockerID. It never blocks the caller;
// when the queue is full the job is dropped.
func (wp *WorkerPool) Dispatch(lockerID int64) {
	select {
	case wp.jobs <- lockerID:
	default:
		wp.log.Warn("notification queue full, dropping job", zap.Int64("locker_id", lockerID))
	}
}

func (wp *WorkerPool) sendNotificationsForLocker(ctx context.Context, lockerID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_locker_mapping slm ON slm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("slm.locker_id = ?", lockerID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.Error("fetch subscriptions", zap.Int64("locker_id", lockerID), zap.Error(err))
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	wp.log.Info("sending notifications",
		zap.Int("count", len(subscriptions)),
		zap.Int64("locker_id", lockerID))

	var locker model.Locker
	label := fmt.Sprintf("%d", lockerID)
	if err := wp.db.WithContext(ctx).
		Select("numero_casillero").
		First(&locker, lockerID).Error; err != nil {
		wp.log.Warn("fetch locker", zap.Int64("locker_id", lockerID), zap.Error(err))
	} else if locker.Code != "" {
		label = locker.Code
	}

	message := fmt.Sprintf("¡El casillero %s está disponible!", label)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error("send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.Error("delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
