package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cinepass/boxoffice/internal/fault"
)

// Publisher emits domain events and schedules delayed expiration ticks over
// the broker's shared channel. Messages are persistent so they survive
// broker restarts; delivery is at-least-once and consumers are assumed
// idempotent.
type Publisher struct {
	broker *Broker
	mu     sync.Mutex // amqp channels are not safe for concurrent publish
}

// NewPublisher wraps a dialed broker.
func NewPublisher(b *Broker) *Publisher { return &Publisher{broker: b} }

// Publish sends a domain event to the event exchange under the given
// routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fault.Wrap(fault.KindBrokerUnavailable, err, "marshal event %s", routingKey)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.broker.Channel().PublishWithContext(ctx,
		EventExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fault.Wrap(fault.KindBrokerUnavailable, err, "publish %s", routingKey)
	}
	return nil
}

// ScheduleExpiration enqueues an expiration tick that becomes deliverable
// after delay. The per-message TTL on the wait queue realises the delay; no
// in-process timer is involved, so the tick survives process restarts.
func (p *Publisher) ScheduleExpiration(ctx context.Context, reservationID string, delay time.Duration) error {
	body, err := json.Marshal(ExpireMessage{ReservationID: reservationID})
	if err != nil {
		return fault.Wrap(fault.KindBrokerUnavailable, err, "marshal expire message")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.broker.Channel().PublishWithContext(ctx,
		"", // default exchange
		ExpireWaitQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
			Body:         body,
		},
	)
	if err != nil {
		return fault.Wrap(fault.KindBrokerUnavailable, err, "schedule expiration")
	}
	return nil
}
