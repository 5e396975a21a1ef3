package ports

import (
	"context"
	"time"

	"pesa-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// Authenticator resolves an opaque API credential to the owning account
// and the operating mode. The mode is decided by which credential class
// matched, not by a separate flag.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*domain.Account, domain.Mode, error)
}

// ChargeRequest holds validated orchestrator input. Amount is integer
// minor units; Phone is the raw caller-supplied string.
type ChargeRequest struct {
	Account     *domain.Account
	Mode        domain.Mode
	Amount      int64
	Phone       string
	Currency    string
	Description *string
	ExternalRef *string
	ClientIP    string
}

// ChargeAck is the immediate PENDING acknowledgment returned before
// settlement resolves out-of-band.
type ChargeAck struct {
	Transaction *domain.Transaction
	Message     string
	Mode        domain.Mode
}

// ChargeService is the charge orchestrator.
type ChargeService interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeAck, error)
	GetTransaction(ctx context.Context, accountID uuid.UUID, txnID string) (*domain.Transaction, error)
}

// SettlementStrategy resolves a PENDING transaction to a terminal state
// out-of-band. Exactly one resolution per transaction; resolving an
// already-terminal transaction is a no-op guarded by the ledger.
type SettlementStrategy interface {
	Dispatch(ctx context.Context, txn *domain.Transaction) error
}

// WebhookNotifier enqueues a terminal-state event for delivery to the
// merchant's configured endpoint.
type WebhookNotifier interface {
	NotifyTerminal(ctx context.Context, txn *domain.Transaction) error
}

// APIKeyCache is the Redis hot-path cache for credential resolution.
// Get returns nil, nil on a miss.
type APIKeyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Scheduler runs a task after a delay without blocking the caller. The
// returned cancel function stops the task if it has not fired yet.
type Scheduler interface {
	Schedule(delay time.Duration, task func(ctx context.Context)) (cancel func())
}
