package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookJobStatus represents the delivery state of a webhook job.
type WebhookJobStatus string

const (
	WebhookJobStatusPending   WebhookJobStatus = "PENDING"
	WebhookJobStatusCompleted WebhookJobStatus = "COMPLETED"
	WebhookJobStatusFailed    WebhookJobStatus = "FAILED"
)

// WebhookJob is a durable delivery job pushing a terminal-state event to
// the merchant's configured endpoint.
type WebhookJob struct {
	ID            uuid.UUID        `json:"id"`
	AccountID     uuid.UUID        `json:"account_id"`
	TransactionID string           `json:"transaction_id"`
	URL           string           `json:"url"`
	Payload       []byte           `json:"payload"`
	Attempts      int              `json:"attempts"`
	Status        WebhookJobStatus `json:"status"`
	NextRunAt     time.Time        `json:"next_run_at"`
	LastError     *string          `json:"last_error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// WebhookEvent is the JSON body delivered to the merchant endpoint.
type WebhookEvent struct {
	Event         string  `json:"event"` // charge.success | charge.failed
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        int64   `json:"amount"`
	Currency      string  `json:"currency"`
	Fee           int64   `json:"fee"`
	Rail          string  `json:"payment_method"`
	ProviderRef   *string `json:"provider_ref,omitempty"`
	ExternalRef   *string `json:"external_ref,omitempty"`
	Timestamp     int64   `json:"timestamp"`
}
