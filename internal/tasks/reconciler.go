package tasks

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Reconciler triggers a full status reconciliation. With a queue it enqueues
// a ReconcileStatusesTask and returns at once; without one it runs inline.
type Reconciler struct {
	client *Client
	inline StatusReconciler
	logger *zap.Logger
}

// NewReconciler creates a Reconciler. client may be nil when the task queue
// is disabled.
func NewReconciler(client *Client, inline StatusReconciler, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{client: client, inline: inline, logger: logger.Named("tasks")}
}

// Reconcile reconciles all readers.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	return r.ReconcileReader(ctx, 0)
}

// ReconcileReader reconciles one reader, or every reader for 0.
func (r *Reconciler) ReconcileReader(ctx context.Context, readerID uint) error {
	if r.client != nil {
		id, err := r.client.Enqueue(ctx, ReconcileStatusesTask{ReaderID: readerID})
		if err != nil {
			return fmt.Errorf("failed to enqueue reconcile task: %w", err)
		}
		r.logger.Info("Reconcile task enqueued", zap.String("task_id", id), zap.Uint("reader_id", readerID))
		return nil
	}

	if r.inline == nil {
		return fmt.Errorf("status reconciler not configured")
	}
	_, err := r.inline.ReconcileStatuses(ctx, readerID)
	return err
}
