package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pesa-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, business_name, email, status, sandbox_key, live_key_hash,
		webhook_url, webhook_secret, compliance_id, created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new merchant account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.BusinessName, a.Email, a.Status, a.SandboxKey, a.LiveKeyHash,
		a.WebhookURL, a.WebhookSecret, a.ComplianceID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by UUID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetBySandboxKey resolves a sandbox credential. Returns nil, nil when no
// account holds the key.
func (r *AccountRepo) GetBySandboxKey(ctx context.Context, key string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE sandbox_key = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, key))
}

// GetByLiveKeyHash resolves a live credential by its SHA-256 fingerprint.
func (r *AccountRepo) GetByLiveKeyHash(ctx context.Context, hash string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE live_key_hash = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, hash))
}

// UpdateStatus moves the account through its onboarding lifecycle.
func (r *AccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// SetWebhook configures the delivery endpoint and signing secret.
func (r *AccountRepo) SetWebhook(ctx context.Context, id uuid.UUID, url, secret string) error {
	query := `UPDATE accounts SET webhook_url = $1, webhook_secret = $2, updated_at = $3 WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, url, secret, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set account webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

func (r *AccountRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.BusinessName, &a.Email, &a.Status, &a.SandboxKey, &a.LiveKeyHash,
		&a.WebhookURL, &a.WebhookSecret, &a.ComplianceID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
