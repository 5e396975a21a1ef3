package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Rail is the mobile-money network a charge is collected through.
type Rail string

const (
	RailMpesa  Rail = "MPESA"
	RailAirtel Rail = "AIRTEL"
	RailCard   Rail = "CARD" // reserved, never classified
)

// TransactionStatus represents the lifecycle state of a transaction.
// PENDING moves to exactly one of SUCCESS or FAILED and never returns.
// HELD, RELEASED and REFUNDED belong to the escrow extension and are
// reachable only from SUCCESS; their transition logic lives outside this
// engine but they share the status field.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusSuccess  TransactionStatus = "SUCCESS"
	TransactionStatusFailed   TransactionStatus = "FAILED"
	TransactionStatusHeld     TransactionStatus = "HELD"
	TransactionStatusReleased TransactionStatus = "RELEASED"
	TransactionStatusRefunded TransactionStatus = "REFUNDED"
)

// Transaction is an immutable charge record. Amount and fee are fixed at
// creation; only status, provider_ref, completed_at and the simulation
// metadata flag change afterwards, and only through the ledger's
// conditional update.
type Transaction struct {
	ID          string                 `json:"id"` // txn_ prefixed, opaque
	AccountID   uuid.UUID              `json:"account_id"`
	Amount      int64                  `json:"amount"` // minor units, never floating point
	Currency    string                 `json:"currency"`
	Phone       string                 `json:"phone"` // canonical international form
	Rail        Rail                   `json:"payment_method"`
	Status      TransactionStatus      `json:"status"`
	FeeAmount   int64                  `json:"fee_amount"`
	FeeRate     float64                `json:"fee_percentage"` // rate snapshot at creation
	Description *string                `json:"description,omitempty"`
	ExternalRef *string                `json:"external_ref,omitempty"` // caller-supplied, informational only
	ProviderRef *string                `json:"provider_ref,omitempty"` // set only on success
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// NewTransactionID generates a fresh opaque transaction identifier:
// "txn_" plus the first 12 hex characters of a dashless UUID.
func NewTransactionID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "txn_" + raw[:12]
}

// IsTerminal returns true if no further automatic transition occurs.
// HELD is not terminal: the escrow collaborator still owns it.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending && t.Status != TransactionStatusHeld
}

// NetAmount is the amount the merchant receives after the platform fee.
func (t *Transaction) NetAmount() int64 {
	return t.Amount - t.FeeAmount
}
