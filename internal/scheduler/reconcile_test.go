package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (r *countingReconciler) Reconcile(ctx context.Context) error {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	return r.err
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("30 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.Error(t, ValidateSchedule("not a schedule"))
	assert.Error(t, ValidateSchedule("0 30 3 * * *"), "seconds field is not accepted")
}

func TestReconcileScheduler_StartStop(t *testing.T) {
	s := NewReconcileScheduler("30 3 * * *", &countingReconciler{}, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 30, next.Minute())

	// Second start is a no-op
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())

	// Stop is idempotent
	s.Stop()
}

func TestReconcileScheduler_InvalidSchedule(t *testing.T) {
	s := NewReconcileScheduler("bogus", &countingReconciler{}, nil)

	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestReconcileScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewReconcileScheduler("30 3 * * *", &countingReconciler{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestReconcileScheduler_RunNow(t *testing.T) {
	reconciler := &countingReconciler{}
	s := NewReconcileScheduler("30 3 * * *", reconciler, nil)

	s.RunNow()

	assert.Eventually(t, func() bool { return reconciler.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !s.IsSyncing() }, 2*time.Second, 10*time.Millisecond)
}

func TestReconcileScheduler_SkipsOverlappingRuns(t *testing.T) {
	reconciler := &countingReconciler{block: make(chan struct{})}
	s := NewReconcileScheduler("30 3 * * *", reconciler, nil)

	s.RunNow()
	require.Eventually(t, s.IsSyncing, 2*time.Second, 10*time.Millisecond)

	// Runs synchronously and returns at once because a run is in flight
	s.run()
	close(reconciler.block)

	assert.Eventually(t, func() bool { return !s.IsSyncing() }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), reconciler.calls.Load())
}

func TestReconcileScheduler_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	reconciler := &countingReconciler{err: errors.New("queue unavailable")}
	s := NewReconcileScheduler("30 3 * * *", reconciler, zap.New(core))

	s.run()

	entries := logs.FilterMessage("Scheduled reconcile failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "queue unavailable", entries[0].ContextMap()["error"])
}
