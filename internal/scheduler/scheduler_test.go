package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading_roundup/internal/domain"
)

type fakeSyncer struct {
	calls    atomic.Int32
	deadline atomic.Bool
	err      error
}

func (f *fakeSyncer) Sync(ctx context.Context) (*domain.IngestReport, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		f.deadline.Store(true)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.IngestReport{ScanErrors: []error{errors.New("bad file")}}, nil
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	syncer := &fakeSyncer{}
	sched := NewScheduler(syncer, 10*time.Millisecond, time.Second, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	require.Eventually(t, func() bool { return syncer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.True(t, syncer.deadline.Load())
}

func TestScheduler_SurvivesSyncErrors(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("store down")}
	sched := NewScheduler(syncer, 10*time.Millisecond, time.Second, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Start(ctx) }()

	require.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
