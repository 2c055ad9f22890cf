package application

import (
	"context"
	"log/slog"
	"time"
)

// ChargeDispatcher decouples payment creation from gateway latency: the
// orchestrator enqueues charge jobs and a background worker drains them.
// A dropped or failed job leaves the payment PENDING for the reconciler.
type ChargeDispatcher struct {
	log     *slog.Logger
	gateway GatewayClient
	jobs    chan ChargeRequest
	timeout time.Duration
}

func NewChargeDispatcher(log *slog.Logger, gateway GatewayClient, buffer int) *ChargeDispatcher {
	return &ChargeDispatcher{
		log:     log,
		gateway: gateway,
		jobs:    make(chan ChargeRequest, buffer),
		timeout: 5 * time.Second,
	}
}

// Enqueue never blocks; it reports whether the job was accepted.
func (d *ChargeDispatcher) Enqueue(job ChargeRequest) bool {
	select {
	case d.jobs <- job:
		return true
	default:
		return false
	}
}

func (d *ChargeDispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.log.Info("charge dispatcher stopping")
			return nil
		case job := <-d.jobs:
			callCtx, cancel := context.WithTimeout(ctx, d.timeout)
			if err := d.gateway.Charge(callCtx, job); err != nil {
				d.log.Warn("gateway charge failed, payment stays pending", "payment_id", job.PaymentID, "err", err)
			}
			cancel()
		}
	}
}
