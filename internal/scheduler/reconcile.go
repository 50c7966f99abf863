package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler starts a status reconciliation run. tasks.Reconciler is the
// production implementation.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// ReconcileScheduler runs status reconciliation on a cron schedule.
type ReconcileScheduler struct {
	schedule   string
	reconciler Reconciler
	logger     *zap.Logger
	runTimeout time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewReconcileScheduler creates a new scheduler instance.
func NewReconcileScheduler(schedule string, reconciler Reconciler, logger *zap.Logger) *ReconcileScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileScheduler{
		schedule:   schedule,
		reconciler: reconciler,
		logger:     logger.Named("scheduler"),
		runTimeout: 10 * time.Minute,
		cron:       cron.New(cron.WithParser(parser)),
	}
}

// Start registers the reconcile job and starts the cron loop. Cancelling
// ctx stops the scheduler.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Reconcile scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(entryID).Next))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cron.Remove(s.entryID)
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// The job takes s.mu when it finishes, so wait without holding it
	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}

	s.logger.Info("Reconcile scheduler stopped")
}

// RunNow triggers an immediate reconcile in the background.
func (s *ReconcileScheduler) RunNow() {
	go s.run()
}

// IsRunning returns whether the scheduler is active.
func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a reconcile run is in progress.
func (s *ReconcileScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// NextRun returns when the job fires next, or nil when stopped.
func (s *ReconcileScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

func (s *ReconcileScheduler) run() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.logger.Info("Reconcile skipped, previous run still in progress")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	start := time.Now()
	if err := s.reconciler.Reconcile(ctx); err != nil {
		s.logger.Error("Scheduled reconcile failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled reconcile triggered", zap.Duration("elapsed", time.Since(start)))
}
