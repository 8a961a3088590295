package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler writes back expired suspensions in batches.
type Reconciler interface {
	ReconcileExpiredSuspensions(ctx context.Context) (int, error)
}

// ReconcileWorker periodically sweeps expired suspensions. Request handling
// never depends on it; it only keeps stored status tidy.
type ReconcileWorker struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *zap.Logger
}

// NewReconcileWorker builds a worker running every interval.
func NewReconcileWorker(reconciler Reconciler, interval time.Duration, logger *zap.Logger) *ReconcileWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileWorker{reconciler: reconciler, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *ReconcileWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReconcileWorker) sweep(ctx context.Context) {
	corrected, err := w.reconciler.ReconcileExpiredSuspensions(ctx)
	if err != nil {
		w.logger.Error("suspension sweep failed", zap.Int("corrected", corrected), zap.Error(err))
		return
	}
	if corrected > 0 {
		w.logger.Info("expired suspensions reconciled", zap.Int("corrected", corrected))
	}
}
