package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls    atomic.Int32
	released int
	err      error
}

func (c *countingExpirer) ExpireOverdue(context.Context, int) (int, error) {
	c.calls.Add(1)
	return c.released, c.err
}

func TestSweeperSweepsOnInterval(t *testing.T) {
	exp := &countingExpirer{released: 2}
	s := NewSweeper(exp, 10*time.Millisecond, 50, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	assert.Eventually(t, func() bool {
		return exp.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
}

func TestSweeperSurvivesErrors(t *testing.T) {
	exp := &countingExpirer{err: errors.New("store unavailable")}
	s := NewSweeper(exp, 10*time.Millisecond, 50, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	// A failing sweep must not kill the loop.
	assert.Eventually(t, func() bool {
		return exp.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	s.Stop()
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	exp := &countingExpirer{}
	s := NewSweeper(exp, time.Hour, 50, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
