package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

// StatusReconciler recomputes stored reading statuses from logged sessions.
type StatusReconciler interface {
	ReconcileStatuses(ctx context.Context, readerID uint) (int, error)
}

// ReconcileStatusesTask refreshes the stored status of every (reader, book)
// pair, or of one reader's pairs.
type ReconcileStatusesTask struct {
	// ReaderID limits the run to one reader (0 = all readers)
	ReaderID uint `json:"reader_id,omitempty"`
}

// Config returns the queue configuration for reconcile tasks.
func (t ReconcileStatusesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ReconcileStatusesQueue,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileStatusesProcessor creates a processor function for ReconcileStatusesTask.
// Partial failures fail the task so backlite retries it; pairs that already
// succeeded are simply rewritten with the same value.
func ReconcileStatusesProcessor(reconciler StatusReconciler, logger *zap.Logger) backlite.QueueProcessor[ReconcileStatusesTask] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task ReconcileStatusesTask) error {
		if reconciler == nil {
			return fmt.Errorf("status reconciler not configured")
		}

		updated, err := reconciler.ReconcileStatuses(ctx, task.ReaderID)
		if err != nil {
			return fmt.Errorf("reconcile statuses: %w", err)
		}

		logger.Info("Reconcile task complete",
			zap.Uint("reader_id", task.ReaderID),
			zap.Int("updated", updated))
		return nil
	}
}

// NewReconcileStatusesQueue creates a backlite queue for reconcile tasks.
func NewReconcileStatusesQueue(reconciler StatusReconciler, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(ReconcileStatusesProcessor(reconciler, logger))
}
