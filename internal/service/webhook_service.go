package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WebhookService implements ports.WebhookNotifier by enqueueing a
// durable delivery job for each terminal transaction. Delivery itself
// runs in the webhook worker so settlement resolution never blocks on a
// slow merchant endpoint.
type WebhookService struct {
	accounts ports.AccountRepository
	jobs     ports.WebhookJobRepository
	log      zerolog.Logger
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(accounts ports.AccountRepository, jobs ports.WebhookJobRepository, log zerolog.Logger) *WebhookService {
	return &WebhookService{accounts: accounts, jobs: jobs, log: log}
}

// NotifyTerminal enqueues a charge.success / charge.failed event for the
// owning account. Accounts without a configured webhook URL are skipped.
func (s *WebhookService) NotifyTerminal(ctx context.Context, txn *domain.Transaction) error {
	account, err := s.accounts.GetByID(ctx, txn.AccountID)
	if err != nil {
		return fmt.Errorf("webhook account lookup: %w", err)
	}
	if account == nil || account.WebhookURL == nil || *account.WebhookURL == "" {
		s.log.Debug().Str("txn_id", txn.ID).Msg("no webhook URL configured, skipping")
		return nil
	}

	event := domain.WebhookEvent{
		Event:         eventName(txn.Status),
		TransactionID: txn.ID,
		Status:        string(txn.Status),
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Fee:           txn.FeeAmount,
		Rail:          string(txn.Rail),
		ProviderRef:   txn.ProviderRef,
		ExternalRef:   txn.ExternalRef,
		Timestamp:     time.Now().Unix(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	now := time.Now().UTC()
	job := &domain.WebhookJob{
		ID:            uuid.New(),
		AccountID:     account.ID,
		TransactionID: txn.ID,
		URL:           *account.WebhookURL,
		Payload:       payload,
		Status:        domain.WebhookJobStatusPending,
		NextRunAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue webhook job: %w", err)
	}

	s.log.Info().
		Str("txn_id", txn.ID).
		Str("event", event.Event).
		Str("job_id", job.ID.String()).
		Msg("webhook enqueued")
	return nil
}

func eventName(status domain.TransactionStatus) string {
	if status == domain.TransactionStatusSuccess {
		return "charge.success"
	}
	return "charge.failed"
}
