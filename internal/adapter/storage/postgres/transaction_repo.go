package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, account_id, amount, currency, phone, payment_method, status,
		fee_amount, fee_rate, description, external_ref, provider_ref, metadata, created_at, completed_at`

// TransactionRepo implements ports.TransactionRepository. Status rows are
// append-then-resolve: Create inserts PENDING, ResolvePending is the only
// status mutation, and nothing deletes.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new PENDING transaction.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal transaction metadata: %w", err)
	}

	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = r.pool.Exec(ctx, query,
		t.ID, t.AccountID, t.Amount, t.Currency, t.Phone, t.Rail, t.Status,
		t.FeeAmount, t.FeeRate, t.Description, t.ExternalRef, t.ProviderRef,
		metadata, t.CreatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by its public id.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForAccount fetches a transaction scoped to the owning account.
// A transaction belonging to another account reads as not found.
func (r *TransactionRepo) GetByIDForAccount(ctx context.Context, accountID uuid.UUID, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND account_id = $2`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id, accountID))
}

// ResolvePending moves a PENDING transaction to its terminal state. The
// status predicate makes the update a compare-and-set: the second of two
// racing resolutions matches zero rows and returns false.
func (r *TransactionRepo) ResolvePending(ctx context.Context, id string, res ports.Resolution) (bool, error) {
	query := `UPDATE transactions
		SET status = $1, provider_ref = $2, completed_at = $3,
			metadata = CASE WHEN $4 THEN metadata || '{"sandbox_simulated": true}'::jsonb ELSE metadata END
		WHERE id = $5 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, res.Status, res.ProviderRef, res.CompletedAt, res.Simulated, id)
	if err != nil {
		return false, fmt.Errorf("resolve transaction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListStalePending returns PENDING transactions created before cutoff,
// oldest first.
func (r *TransactionRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func scanTransactionRow(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var metadata []byte

	err := row.Scan(
		&t.ID, &t.AccountID, &t.Amount, &t.Currency, &t.Phone, &t.Rail, &t.Status,
		&t.FeeAmount, &t.FeeRate, &t.Description, &t.ExternalRef, &t.ProviderRef,
		&metadata, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
		}
	}
	return &t, nil
}
