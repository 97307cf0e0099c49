// Package event publishes domain events to a message broker for
// downstream operator tooling (dashboards, analytics) without those
// consumers querying the primary database.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	queueBatchLocked         = "batch.locked"
	queueReservationRedeemed = "reservation.redeemed"
)

// BatchLockedEvent is published when a batch closes to new locks, which
// fixes the final tier pricing for everyone in it.
type BatchLockedEvent struct {
	BatchID    string    `json:"batch_id"`
	VenueID    int64     `json:"venue_id"`
	ItemID     int64     `json:"item_id"`
	LiveCount  int       `json:"live_count"`
	PriceDrops int       `json:"price_drops"`
	LockedAt   time.Time `json:"locked_at"`
}

// ReservationRedeemedEvent is published when an operator validates a
// redeem code at the counter.
type ReservationRedeemedEvent struct {
	ReservationID  string    `json:"reservation_id"`
	BatchID        string    `json:"batch_id"`
	VenueID        int64     `json:"venue_id"`
	AmountDueCents int       `json:"amount_due_cents"`
	RedeemedAt     time.Time `json:"redeemed_at"`
}

// Publisher is the outbound event channel. Failures are for the caller
// to log and ignore; event delivery never gates a guest-facing request.
type Publisher interface {
	PublishBatchLocked(ctx context.Context, e BatchLockedEvent) error
	PublishReservationRedeemed(ctx context.Context, e ReservationRedeemedEvent) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to named queues on a
// RabbitMQ broker.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the event queues
// (idempotent; durable so messages survive broker restarts).
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	for _, name := range []string{queueBatchLocked, queueReservationRedeemed} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", name, err)
		}
	}
	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) PublishBatchLocked(ctx context.Context, e BatchLockedEvent) error {
	return p.publish(ctx, queueBatchLocked, e)
}

func (p *AMQPPublisher) PublishReservationRedeemed(ctx context.Context, e ReservationRedeemedEvent) error {
	return p.publish(ctx, queueReservationRedeemed, e)
}

func (p *AMQPPublisher) publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", queue, err)
	}
	err = p.ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		log.Printf("amqp: publish %s failed: %v", queue, err)
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		log.Printf("amqp: channel close: %v", err)
	}
	return p.conn.Close()
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) PublishBatchLocked(context.Context, BatchLockedEvent) error { return nil }
func (Noop) PublishReservationRedeemed(context.Context, ReservationRedeemedEvent) error {
	return nil
}
func (Noop) Close() error { return nil }
