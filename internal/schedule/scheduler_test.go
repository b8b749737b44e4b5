package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestSchedulerFiresAndStops(t *testing.T) {
	var fired atomic.Int32
	s := New("test", func(context.Context) error {
		fired.Add(1)
		return nil
	}, nopLogger(), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return fired.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerSurvivesTaskError(t *testing.T) {
	var fired atomic.Int32
	s := New("test", func(context.Context) error {
		fired.Add(1)
		return errors.New("boom")
	}, nopLogger(), 10*time.Millisecond)

	go s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return fired.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New("test", func(context.Context) error { return nil }, nopLogger(), time.Hour)

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
