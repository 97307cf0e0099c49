package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"sentra-batch-backend/internal/model"
)

// NoticeKind names the reservation events guests get pushed about.
type NoticeKind string

const (
	NoticePriceDrop     NoticeKind = "price_drop"
	NoticePrepTriggered NoticeKind = "prep_triggered"
	NoticeReady         NoticeKind = "ready"
	NoticeExpired       NoticeKind = "expired"
)

// Notice is one push job: a reservation and what just happened to it.
type Notice struct {
	ReservationID string
	Kind          NoticeKind
}

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

// WorkerPool manages a pool of workers for sending reservation push
// notifications.
type WorkerPool struct {
	size    int
	jobs    chan Notice
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender

	// RefundExpiredFee switches the expiry wording to match the venue's
	// no-show policy (product-level choice, config-driven).
	RefundExpiredFee bool
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Notice, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case notice := <-wp.jobs:
			wp.sendForReservation(ctx, notice)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool without blocking the caller;
// a full queue drops the notice.
func (wp *WorkerPool) Dispatch(notice Notice) {
	select {
	case wp.jobs <- notice:
	default:
		log.Printf("Notification queue full, dropping %s for reservation %s", notice.Kind, notice.ReservationID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Notice {
	return wp.jobs
}

// sendForReservation fetches the reservation and its subscriptions and
// pushes the notice to each.
func (wp *WorkerPool) sendForReservation(ctx context.Context, notice Notice) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_reservation_mapping srm ON srm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("srm.reservation_id = ?", notice.ReservationID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for reservation %s: %v", notice.ReservationID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	var reservation model.Reservation
	if err := wp.db.WithContext(ctx).First(&reservation, "id = ?", notice.ReservationID).Error; err != nil {
		log.Printf("Error fetching reservation %s: %v", notice.ReservationID, err)
		return
	}

	message := wp.noticeMessage(notice.Kind, &reservation)
	log.Printf("Sending %d notifications (%s) for reservation %s", len(subscriptions), notice.Kind, reservation.ID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) noticeMessage(kind NoticeKind, r *model.Reservation) string {
	switch kind {
	case NoticePriceDrop:
		return fmt.Sprintf("Your batch grew! Price dropped to $%d.%02d. You now owe $%d.%02d at pickup.",
			r.EffectivePriceCents()/100, r.EffectivePriceCents()%100,
			r.AmountDueCents()/100, r.AmountDueCents()%100)
	case NoticePrepTriggered:
		return "The kitchen just started on your order."
	case NoticeReady:
		return fmt.Sprintf("Your order is ready! Show code %s at the counter.", r.RedeemCode)
	case NoticeExpired:
		if wp.RefundExpiredFee {
			return "Your reservation expired. The lock fee will be refunded."
		}
		return "Your reservation expired. The lock fee was kept as a no-show deposit."
	default:
		return "Your reservation was updated."
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
