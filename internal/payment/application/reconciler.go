package application

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler sweeps payments stuck PENDING past maxAge and cancels them,
// so a lost gateway dispatch does not drift silently forever.
type Reconciler struct {
	log      *slog.Logger
	payments PaymentRepository
	interval time.Duration
	maxAge   time.Duration
	batch    int
}

func NewReconciler(log *slog.Logger, payments PaymentRepository, interval, maxAge time.Duration) *Reconciler {
	return &Reconciler{
		log:      log,
		payments: payments,
		interval: interval,
		maxAge:   maxAge,
		batch:    100,
	}
}

func (r *Reconciler) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopping")
			return nil
		case <-t.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	ids, err := r.payments.CancelStalePending(ctx, r.maxAge, r.batch)
	if err != nil {
		r.log.Error("reconciler sweep failed", "err", err)
		return
	}
	for _, id := range ids {
		r.log.Info("stale pending payment canceled", "payment_id", id, "max_age", r.maxAge)
	}
}
