package worker

import (
	"context"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const reconcileBatchSize = 100

// Reconciler is the safety net for transactions whose deferred settlement
// never fired (process restart, scheduler loss, silent provider). It
// periodically fails PENDING transactions older than the cutoff through
// the same conditional update settlement uses, so a late callback racing
// the sweep still resolves exactly once.
type Reconciler struct {
	ledger   ports.TransactionRepository
	notifier ports.WebhookNotifier // nil = notifications disabled
	interval time.Duration
	cutoff   time.Duration
	log      zerolog.Logger
}

// NewReconciler creates a reconciler sweeping every interval and failing
// PENDING transactions older than cutoff.
func NewReconciler(
	ledger ports.TransactionRepository,
	notifier ports.WebhookNotifier,
	interval, cutoff time.Duration,
	log zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		ledger:   ledger,
		notifier: notifier,
		interval: interval,
		cutoff:   cutoff,
		log:      log,
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.log.Info().
		Dur("interval", r.interval).
		Dur("cutoff", r.cutoff).
		Msg("reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reconciler stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error().Err(err).Msg("reconciliation sweep failed")
			}
		}
	}
}

// Sweep fails stale PENDING transactions and returns how many it
// resolved. A transaction settled between the list and the update is
// skipped by the conditional update, not double-resolved.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-r.cutoff)
	stale, err := r.ledger.ListStalePending(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		return 0, err
	}

	failed := 0
	for i := range stale {
		txn := &stale[i]
		res := ports.Resolution{
			Status:      domain.TransactionStatusFailed,
			CompletedAt: time.Now().UTC(),
		}
		applied, err := r.ledger.ResolvePending(ctx, txn.ID, res)
		if err != nil {
			r.log.Error().Err(err).Str("txn_id", txn.ID).Msg("failed to reconcile transaction")
			continue
		}
		if !applied {
			continue
		}

		failed++
		r.log.Warn().
			Str("txn_id", txn.ID).
			Time("created_at", txn.CreatedAt).
			Msg("stale PENDING transaction failed by reconciler")

		if r.notifier != nil {
			resolved := *txn
			resolved.Status = res.Status
			resolved.CompletedAt = &res.CompletedAt
			if err := r.notifier.NotifyTerminal(ctx, &resolved); err != nil {
				r.log.Warn().Err(err).Str("txn_id", txn.ID).Msg("failed to enqueue webhook")
			}
		}
	}

	if failed > 0 {
		r.log.Info().Int("failed", failed).Msg("reconciliation sweep complete")
	}
	return failed, nil
}
