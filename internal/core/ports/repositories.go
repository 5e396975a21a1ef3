package ports

import (
	"context"
	"time"

	"pesa-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// Resolution carries the terminal outcome applied to a PENDING transaction.
type Resolution struct {
	Status      domain.TransactionStatus // SUCCESS or FAILED
	ProviderRef *string                  // set only on success
	CompletedAt time.Time
	Simulated   bool // marks sandbox_simulated in metadata
}

// TransactionRepository is the ledger: the single source of truth for
// transaction status. All mutation goes through ResolvePending's
// compare-and-set update; rows are never deleted.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIDForAccount scopes the lookup to the owning account.
	GetByIDForAccount(ctx context.Context, accountID uuid.UUID, id string) (*domain.Transaction, error)
	// ResolvePending applies res only if the row exists and is still
	// PENDING. Returns false (no error) when the row has already left
	// PENDING — the loser of a duplicate-callback race observes a no-op.
	ResolvePending(ctx context.Context, id string, res Resolution) (bool, error)
	// ListStalePending returns PENDING transactions created before cutoff,
	// oldest first, for the reconciliation sweep.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error)
}

// AccountRepository defines persistence for merchant accounts. Credential
// lookups are point lookups — they sit on the hot path of every charge.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetBySandboxKey(ctx context.Context, key string) (*domain.Account, error)
	GetByLiveKeyHash(ctx context.Context, hash string) (*domain.Account, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error
	SetWebhook(ctx context.Context, id uuid.UUID, url, secret string) error
}

// ComplianceRepository defines persistence for KYC records. The engine
// reads them only through account gating; create/submit/review serve the
// merchant and admin collaborators.
type ComplianceRepository interface {
	Create(ctx context.Context, rec *domain.Compliance) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Compliance, error)
	// Submit moves DRAFT or REJECTED to PENDING. Returns false if the
	// record was not in a submittable state.
	Submit(ctx context.Context, id uuid.UUID) (bool, error)
	// Review moves PENDING to APPROVED or REJECTED. Returns false if the
	// record was not under review.
	Review(ctx context.Context, id uuid.UUID, approved bool, reason *string) (bool, error)
}

// WebhookJobRepository is the durable delivery queue for terminal-state
// events.
type WebhookJobRepository interface {
	Enqueue(ctx context.Context, job *domain.WebhookJob) error
	// ClaimDue locks and returns one due PENDING job, or nil when none.
	ClaimDue(ctx context.Context, now time.Time) (*domain.WebhookJob, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	Reschedule(ctx context.Context, id uuid.UUID, nextRun time.Time, lastError string) error
}
