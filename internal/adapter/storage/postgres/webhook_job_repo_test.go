package postgres

import (
	"context"
	"testing"
	"time"

	"pesa-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobColumns() []string {
	return []string{"id", "account_id", "transaction_id", "url", "payload", "attempts",
		"status", "next_run_at", "last_error", "created_at", "updated_at"}
}

func TestWebhookJobRepo_Enqueue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookJobRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	job := &domain.WebhookJob{
		ID:            uuid.New(),
		AccountID:     uuid.New(),
		TransactionID: "txn_abc123def456",
		URL:           "https://merchant.example/hooks",
		Payload:       []byte(`{"event":"charge.success"}`),
		Status:        domain.WebhookJobStatusPending,
		NextRunAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO webhook_jobs").
		WithArgs(
			job.ID, job.AccountID, job.TransactionID, job.URL, job.Payload,
			job.Attempts, job.Status, job.NextRunAt, job.LastError,
			job.CreatedAt, job.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Enqueue(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookJobRepo_ClaimDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookJobRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()
	accountID := uuid.New()

	mock.ExpectQuery("UPDATE webhook_jobs").
		WithArgs(now.Add(claimLease), now).
		WillReturnRows(pgxmock.NewRows(jobColumns()).AddRow(
			id, accountID, "txn_abc123def456", "https://merchant.example/hooks",
			[]byte(`{}`), 1, domain.WebhookJobStatusPending, now.Add(claimLease),
			(*string)(nil), now, now,
		))

	job, err := repo.ClaimDue(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, 1, job.Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookJobRepo_ClaimDue_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookJobRepo(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE webhook_jobs").
		WithArgs(now.Add(claimLease), now).
		WillReturnRows(pgxmock.NewRows(jobColumns()))

	job, err := repo.ClaimDue(context.Background(), now)
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookJobRepo_MarkCompleted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookJobRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE webhook_jobs SET status = 'COMPLETED'").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.MarkCompleted(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookJobRepo_Reschedule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookJobRepo(mock)
	id := uuid.New()
	nextRun := time.Now().UTC().Add(20 * time.Second)

	mock.ExpectExec("UPDATE webhook_jobs SET next_run_at").
		WithArgs(nextRun, "merchant endpoint returned 500", pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Reschedule(context.Background(), id, nextRun, "merchant endpoint returned 500"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookJobRepo_MarkFailed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookJobRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE webhook_jobs SET status = 'FAILED'").
		WithArgs("merchant endpoint returned 502", pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.MarkFailed(context.Background(), id, "merchant endpoint returned 502"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
