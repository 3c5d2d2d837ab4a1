package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAcknowledger records per-tag settlement decisions.
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	requeue map[uint64]bool
}

func newFakeAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{requeue: map[uint64]bool{}}
}

func (f *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeue[tag] = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

type fakeExpirer struct {
	mu     sync.Mutex
	seen   []string
	failOn map[string]error
}

func (f *fakeExpirer) Expire(_ context.Context, reservationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, reservationID)
	return f.failOn[reservationID]
}

func delivery(ack amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: []byte(body)}
}

func newTestConsumer(expirer Expirer) *ExpirationConsumer {
	return NewExpirationConsumer("amqp://unused", expirer, ConsumerConfig{
		BatchSize:     10,
		FlushInterval: time.Second,
	}, zap.NewNop())
}

func TestProcessBatchSettlesPerOutcome(t *testing.T) {
	ack := newFakeAcknowledger()
	exp := &fakeExpirer{failOn: map[string]error{"res-2": errors.New("store unavailable")}}
	c := newTestConsumer(exp)

	c.ProcessBatch(context.Background(), []amqp.Delivery{
		delivery(ack, 1, `{"reservation_id":"res-1"}`),
		delivery(ack, 2, `{"reservation_id":"res-2"}`),
		delivery(ack, 3, `{"reservation_id":"res-3"}`),
	})

	// Successes ack, the failure requeues for redelivery.
	assert.ElementsMatch(t, []uint64{1, 3}, ack.acked)
	requeue, ok := ack.requeue[2]
	require.True(t, ok)
	assert.True(t, requeue)
	assert.ElementsMatch(t, []string{"res-1", "res-2", "res-3"}, exp.seen)
}

func TestProcessBatchDropsMalformedMessages(t *testing.T) {
	ack := newFakeAcknowledger()
	exp := &fakeExpirer{}
	c := newTestConsumer(exp)

	c.ProcessBatch(context.Background(), []amqp.Delivery{
		delivery(ack, 1, `not json`),
		delivery(ack, 2, `{}`),
	})

	// Malformed ticks can never succeed: rejected without requeue, and the
	// expirer is never invoked for them.
	assert.Empty(t, ack.acked)
	assert.False(t, ack.requeue[1])
	assert.False(t, ack.requeue[2])
	assert.Empty(t, exp.seen)
}

func TestProcessBatchEmptyIsNoop(t *testing.T) {
	c := newTestConsumer(&fakeExpirer{})
	c.ProcessBatch(context.Background(), nil)
}

func TestConsumerConfigDefaults(t *testing.T) {
	c := NewExpirationConsumer("amqp://unused", &fakeExpirer{}, ConsumerConfig{}, zap.NewNop())
	assert.Equal(t, 1, c.cfg.BatchSize)
	assert.Equal(t, 2*time.Second, c.cfg.FlushInterval)
}
