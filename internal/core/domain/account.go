package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus represents the onboarding state of a merchant account.
type AccountStatus string

const (
	AccountStatusUnverified    AccountStatus = "UNVERIFIED"
	AccountStatusEmailVerified AccountStatus = "EMAIL_VERIFIED"
	AccountStatusPending       AccountStatus = "PENDING"
	AccountStatusApproved      AccountStatus = "APPROVED"
	AccountStatusRejected      AccountStatus = "REJECTED"
	AccountStatusSuspended     AccountStatus = "SUSPENDED"
)

// Mode is the operating mode a credential resolves to.
type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeLive    Mode = "live"
)

// Account represents a merchant. Accounts are never hard-deleted, only
// suspended.
type Account struct {
	ID            uuid.UUID     `json:"id"`
	BusinessName  string        `json:"business_name"`
	Email         string        `json:"email"`
	Status        AccountStatus `json:"status"`
	SandboxKey    string        `json:"-"` // sk_test_..., stored as-is
	LiveKeyHash   string        `json:"-"` // SHA-256 hex fingerprint of sk_live_...
	WebhookURL    *string       `json:"webhook_url,omitempty"`
	WebhookSecret *string       `json:"-"`
	ComplianceID  *uuid.UUID    `json:"compliance_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CanGoLive returns true if the account may settle in live mode.
func (a *Account) CanGoLive() bool {
	return a.Status == AccountStatusApproved
}

// IsSuspended returns true if the account has been suspended by an admin.
func (a *Account) IsSuspended() bool {
	return a.Status == AccountStatusSuspended
}
