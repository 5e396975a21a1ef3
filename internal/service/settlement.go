package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// SettlementSimulator resolves sandbox transactions after a fixed delay
// with a configured success probability. The task runs on the scheduler,
// never on the request path, and resolution goes through the ledger's
// conditional update so a duplicate attempt is a no-op.
type SettlementSimulator struct {
	ledger      ports.TransactionRepository
	notifier    ports.WebhookNotifier // nil = notifications disabled
	sched       ports.Scheduler
	delay       time.Duration
	successRate float64
	randFloat   func() float64
	log         zerolog.Logger
}

// NewSettlementSimulator creates a simulator. successRate is the
// probability of SUCCESS in [0, 1].
func NewSettlementSimulator(
	ledger ports.TransactionRepository,
	notifier ports.WebhookNotifier,
	sched ports.Scheduler,
	delay time.Duration,
	successRate float64,
	log zerolog.Logger,
) *SettlementSimulator {
	return &SettlementSimulator{
		ledger:      ledger,
		notifier:    notifier,
		sched:       sched,
		delay:       delay,
		successRate: successRate,
		randFloat:   rand.Float64,
		log:         log,
	}
}

// WithRandSource overrides the randomness source. Tests use this to make
// the outcome deterministic.
func (s *SettlementSimulator) WithRandSource(f func() float64) *SettlementSimulator {
	s.randFloat = f
	return s
}

// Dispatch schedules the deferred resolution and returns immediately.
func (s *SettlementSimulator) Dispatch(_ context.Context, txn *domain.Transaction) error {
	s.sched.Schedule(s.delay, func(ctx context.Context) {
		s.resolve(ctx, txn)
	})
	return nil
}

func (s *SettlementSimulator) resolve(ctx context.Context, txn *domain.Transaction) {
	success := s.randFloat() < s.successRate

	res := ports.Resolution{
		Status:      domain.TransactionStatusFailed,
		CompletedAt: time.Now().UTC(),
		Simulated:   true,
	}
	if success {
		ref := fmt.Sprintf("SANDBOX_%d", time.Now().UnixMilli())
		res.Status = domain.TransactionStatusSuccess
		res.ProviderRef = &ref
	}

	applied, err := s.ledger.ResolvePending(ctx, txn.ID, res)
	if err != nil {
		s.log.Error().Err(err).Str("txn_id", txn.ID).Msg("simulated settlement update failed")
		return
	}
	if !applied {
		s.log.Debug().Str("txn_id", txn.ID).Msg("transaction already resolved, skipping")
		return
	}

	s.log.Info().
		Str("txn_id", txn.ID).
		Str("status", string(res.Status)).
		Msg("sandbox settlement resolved")

	s.notify(ctx, txn, res)
}

func (s *SettlementSimulator) notify(ctx context.Context, txn *domain.Transaction, res ports.Resolution) {
	if s.notifier == nil {
		return
	}
	resolved := *txn
	resolved.Status = res.Status
	resolved.ProviderRef = res.ProviderRef
	resolved.CompletedAt = &res.CompletedAt
	if err := s.notifier.NotifyTerminal(ctx, &resolved); err != nil {
		s.log.Warn().Err(err).Str("txn_id", txn.ID).Msg("failed to enqueue webhook")
	}
}

// LiveSettlementAdapter is the live-rail strategy. Initiating settlement
// against the provider network is not wired yet: Dispatch acknowledges
// optimistically and the transaction stays PENDING until the provider
// callback arrives or the reconciliation sweep times it out.
type LiveSettlementAdapter struct {
	ledger   ports.TransactionRepository
	notifier ports.WebhookNotifier
	log      zerolog.Logger
}

// NewLiveSettlementAdapter creates the live adapter.
func NewLiveSettlementAdapter(ledger ports.TransactionRepository, notifier ports.WebhookNotifier, log zerolog.Logger) *LiveSettlementAdapter {
	return &LiveSettlementAdapter{ledger: ledger, notifier: notifier, log: log}
}

// Dispatch records the handoff. TODO: call the provider's STK push API
// here once the integration credentials land.
func (a *LiveSettlementAdapter) Dispatch(_ context.Context, txn *domain.Transaction) error {
	a.log.Warn().
		Str("txn_id", txn.ID).
		Str("rail", string(txn.Rail)).
		Msg("live settlement adapter has no provider integration; transaction left PENDING for reconciliation")
	return nil
}

// HandleProviderCallback applies a provider settlement callback exactly
// once. A duplicate callback for an already-terminal transaction is a
// no-op, not an error.
func (a *LiveSettlementAdapter) HandleProviderCallback(ctx context.Context, txnID string, success bool, providerRef string) error {
	res := ports.Resolution{
		Status:      domain.TransactionStatusFailed,
		CompletedAt: time.Now().UTC(),
	}
	if success {
		res.Status = domain.TransactionStatusSuccess
		res.ProviderRef = &providerRef
	}

	applied, err := a.ledger.ResolvePending(ctx, txnID, res)
	if err != nil {
		return fmt.Errorf("applying provider callback: %w", err)
	}
	if !applied {
		a.log.Debug().Str("txn_id", txnID).Msg("duplicate provider callback ignored")
		return nil
	}

	a.log.Info().
		Str("txn_id", txnID).
		Str("status", string(res.Status)).
		Msg("live settlement resolved")

	if a.notifier != nil {
		txn, err := a.ledger.GetByID(ctx, txnID)
		if err == nil && txn != nil {
			if err := a.notifier.NotifyTerminal(ctx, txn); err != nil {
				a.log.Warn().Err(err).Str("txn_id", txnID).Msg("failed to enqueue webhook")
			}
		}
	}
	return nil
}
