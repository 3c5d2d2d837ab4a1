package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Expirer is the coordinator's expire operation. It is idempotent; the
// consumer may hand it the same reservation any number of times.
type Expirer interface {
	Expire(ctx context.Context, reservationID string) error
}

// ConsumerConfig bounds the batch window: a batch is processed when it
// reaches BatchSize messages or when FlushInterval elapses, whichever
// comes first.
type ConsumerConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// ExpirationConsumer drains the expiration work queue and applies each tick
// through the coordinator. Acknowledgement is per message, keyed to
// outcome: a mixed batch acks the successes and requeues the failures.
type ExpirationConsumer struct {
	url     string
	expirer Expirer
	cfg     ConsumerConfig
	log     *zap.Logger
}

// NewExpirationConsumer builds a consumer that dials its own connection so
// a publisher-side channel error never stalls expiration processing.
func NewExpirationConsumer(url string, expirer Expirer, cfg ConsumerConfig, log *zap.Logger) *ExpirationConsumer {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	return &ExpirationConsumer{url: url, expirer: expirer, cfg: cfg, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with backoff when the
// broker connection drops.
func (c *ExpirationConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("expiration consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("expiration consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *ExpirationConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Prefetch must cover a full batch window, otherwise the broker would
	// stop delivering before the batch fills.
	if err := ch.Qos(c.cfg.BatchSize, 0, false); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(ExpireQueue, true, false, false, false, nil); err != nil {
		return err
	}
	msgs, err := ch.Consume(ExpireQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	batch := make([]amqp.Delivery, 0, c.cfg.BatchSize)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.ProcessBatch(ctx, batch)
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				c.ProcessBatch(ctx, batch)
				return errors.New("deliveries channel closed")
			}
			batch = append(batch, d)
			if len(batch) >= c.cfg.BatchSize {
				c.ProcessBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			c.ProcessBatch(ctx, batch)
			batch = batch[:0]
		}
	}
}

// ProcessBatch applies a batch of ticks in parallel and settles each
// delivery by its own outcome.
func (c *ExpirationConsumer) ProcessBatch(ctx context.Context, batch []amqp.Delivery) {
	if len(batch) == 0 {
		return
	}
	var wg sync.WaitGroup
	for i := range batch {
		d := batch[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.handle(ctx, d)
		}()
	}
	wg.Wait()
}

func (c *ExpirationConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg ExpireMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.ReservationID == "" {
		// Malformed ticks can never succeed; reject without requeue.
		c.log.Error("expiration consumer: dropping malformed message", zap.ByteString("body", d.Body))
		_ = d.Nack(false, false)
		return
	}
	if err := c.expirer.Expire(ctx, msg.ReservationID); err != nil {
		c.log.Warn("expire failed, requeueing",
			zap.String("reservation_id", msg.ReservationID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
