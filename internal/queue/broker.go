package queue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker topology. Expiration ticks are published to the wait queue with a
// per-message TTL; RabbitMQ dead-letters them into the work queue once the
// TTL elapses, which is where the expiration consumer reads. Domain events
// fan out from a topic exchange keyed by event name.
const (
	EventExchange   = "boxoffice.events"
	ExpireWaitQueue = "reservation.expire.wait"
	ExpireQueue     = "reservation.expire"
)

// Broker owns one long-lived connection and channel, dialed at process
// start and closed at process stop. Request handlers never mutate it.
type Broker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	url  string
}

// Dial connects to the broker and declares the topology. Connection
// attempts are retried a few times to ride out container startup ordering.
func Dial(url string) (*Broker, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("broker dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker channel: %w", err)
	}

	b := &Broker{conn: conn, ch: ch, url: url}
	if err := b.declareTopology(ch); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Broker) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		EventExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("declare event exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(
		ExpireQueue,
		true, // durable
		false, false, false,
		nil,
	); err != nil {
		return fmt.Errorf("declare expire queue: %w", err)
	}
	// The wait queue has no consumer. Messages sit here until their
	// per-message TTL elapses, then dead-letter into the work queue via the
	// default exchange.
	if _, err := ch.QueueDeclare(
		ExpireWaitQueue,
		true,
		false, false, false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": ExpireQueue,
		},
	); err != nil {
		return fmt.Errorf("declare expire wait queue: %w", err)
	}
	return nil
}

// Channel exposes the shared channel for publishing.
func (b *Broker) Channel() *amqp.Channel { return b.ch }

// URL returns the connection string the broker was dialed with.
func (b *Broker) URL() string { return b.url }

// Close tears down the channel and connection.
func (b *Broker) Close() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}
