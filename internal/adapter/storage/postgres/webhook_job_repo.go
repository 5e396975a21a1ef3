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

// WebhookJobRepo implements ports.WebhookJobRepository on a plain table
// used as a queue. ClaimDue combines the pick and the attempt bump in one
// statement with SKIP LOCKED, so concurrent workers never grab the same
// job and a claim survives a worker crash via the lease on next_run_at.
type WebhookJobRepo struct {
	pool Pool
}

// claimLease is how long a claimed job stays invisible to other workers.
const claimLease = time.Minute

// NewWebhookJobRepo creates a new WebhookJobRepo.
func NewWebhookJobRepo(pool Pool) *WebhookJobRepo {
	return &WebhookJobRepo{pool: pool}
}

// Enqueue inserts a new PENDING delivery job.
func (r *WebhookJobRepo) Enqueue(ctx context.Context, job *domain.WebhookJob) error {
	query := `INSERT INTO webhook_jobs (id, account_id, transaction_id, url, payload, attempts, status, next_run_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.AccountID, job.TransactionID, job.URL, job.Payload,
		job.Attempts, job.Status, job.NextRunAt, job.LastError,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook job: %w", err)
	}
	return nil
}

// ClaimDue locks one due PENDING job, counts the attempt and pushes
// next_run_at out by the lease. Returns nil, nil when nothing is due.
func (r *WebhookJobRepo) ClaimDue(ctx context.Context, now time.Time) (*domain.WebhookJob, error) {
	query := `UPDATE webhook_jobs
		SET attempts = attempts + 1, next_run_at = $1, updated_at = $2
		WHERE id = (
			SELECT id FROM webhook_jobs
			WHERE status = 'PENDING' AND next_run_at <= $2
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, account_id, transaction_id, url, payload, attempts, status, next_run_at, last_error, created_at, updated_at`

	var job domain.WebhookJob
	err := r.pool.QueryRow(ctx, query, now.Add(claimLease), now).Scan(
		&job.ID, &job.AccountID, &job.TransactionID, &job.URL, &job.Payload,
		&job.Attempts, &job.Status, &job.NextRunAt, &job.LastError,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim webhook job: %w", err)
	}
	return &job, nil
}

// MarkCompleted finishes a delivered job.
func (r *WebhookJobRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE webhook_jobs SET status = 'COMPLETED', updated_at = $1 WHERE id = $2`

	if _, err := r.pool.Exec(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("complete webhook job: %w", err)
	}
	return nil
}

// MarkFailed gives up on a job permanently.
func (r *WebhookJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	query := `UPDATE webhook_jobs SET status = 'FAILED', last_error = $1, updated_at = $2 WHERE id = $3`

	if _, err := r.pool.Exec(ctx, query, lastError, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("fail webhook job: %w", err)
	}
	return nil
}

// Reschedule returns a job to the queue for a later retry.
func (r *WebhookJobRepo) Reschedule(ctx context.Context, id uuid.UUID, nextRun time.Time, lastError string) error {
	query := `UPDATE webhook_jobs SET next_run_at = $1, last_error = $2, updated_at = $3 WHERE id = $4`

	if _, err := r.pool.Exec(ctx, query, nextRun, lastError, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("reschedule webhook job: %w", err)
	}
	return nil
}
