package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const webhookUserAgent = "PesaGateway-Webhook/1.0"

// WebhookWorker drains the durable delivery queue. Each poll claims one
// due job with a row lock, posts it to the merchant endpoint, and marks
// the outcome. Failures back off linearly and give up after maxAttempts.
type WebhookWorker struct {
	jobs         ports.WebhookJobRepository
	accounts     ports.AccountRepository
	client       *http.Client
	pollInterval time.Duration
	maxAttempts  int
	log          zerolog.Logger
}

// NewWebhookWorker creates a delivery worker.
func NewWebhookWorker(
	jobs ports.WebhookJobRepository,
	accounts ports.AccountRepository,
	timeout, pollInterval time.Duration,
	maxAttempts int,
	log zerolog.Logger,
) *WebhookWorker {
	return &WebhookWorker{
		jobs:         jobs,
		accounts:     accounts,
		client:       &http.Client{Timeout: timeout},
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		log:          log,
	}
}

// Run polls for due jobs until ctx is cancelled. After a delivered job it
// polls again immediately to drain bursts.
func (w *WebhookWorker) Run(ctx context.Context) {
	w.log.Info().Dur("poll_interval", w.pollInterval).Msg("webhook worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("webhook worker stopped")
			return
		case <-ticker.C:
			for {
				processed, err := w.ProcessOne(ctx)
				if err != nil {
					w.log.Error().Err(err).Msg("webhook job processing failed")
					break
				}
				if !processed {
					break
				}
			}
		}
	}
}

// ProcessOne claims and delivers a single due job. It returns false when
// the queue had nothing due.
func (w *WebhookWorker) ProcessOne(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimDue(ctx, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("claiming webhook job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	log := w.log.With().
		Str("job_id", job.ID.String()).
		Str("txn_id", job.TransactionID).
		Int("attempt", job.Attempts).
		Logger()

	if err := w.deliver(ctx, job); err != nil {
		log.Warn().Err(err).Msg("webhook delivery failed")
		return true, w.retryOrFail(ctx, job, err)
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return true, fmt.Errorf("marking job completed: %w", err)
	}
	log.Info().Msg("webhook delivered")
	return true, nil
}

func (w *WebhookWorker) deliver(ctx context.Context, job *domain.WebhookJob) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.URL, bytes.NewReader(job.Payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)

	if sig, ok := w.sign(ctx, job); ok {
		req.Header.Set("X-Pesa-Signature", sig)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("merchant endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// sign computes the HMAC-SHA256 hex digest of the payload with the
// account's webhook secret. Jobs for accounts without a secret go out
// unsigned.
func (w *WebhookWorker) sign(ctx context.Context, job *domain.WebhookJob) (string, bool) {
	account, err := w.accounts.GetByID(ctx, job.AccountID)
	if err != nil || account == nil || account.WebhookSecret == nil || *account.WebhookSecret == "" {
		return "", false
	}
	mac := hmac.New(sha256.New, []byte(*account.WebhookSecret))
	mac.Write(job.Payload)
	return hex.EncodeToString(mac.Sum(nil)), true
}

// retryOrFail reschedules the job with linear backoff, or marks it FAILED
// once the attempt budget is spent. ClaimDue already counted this attempt.
func (w *WebhookWorker) retryOrFail(ctx context.Context, job *domain.WebhookJob, deliverErr error) error {
	if job.Attempts >= w.maxAttempts {
		w.log.Error().
			Str("job_id", job.ID.String()).
			Int("attempts", job.Attempts).
			Msg("webhook job failed permanently")
		return w.jobs.MarkFailed(ctx, job.ID, deliverErr.Error())
	}

	nextRun := time.Now().UTC().Add(time.Duration(job.Attempts*10) * time.Second)
	return w.jobs.Reschedule(ctx, job.ID, nextRun, deliverErr.Error())
}
