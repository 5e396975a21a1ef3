package dto

import "time"

// ChargeRequest is the request body for POST /v1/charge. Amount and
// phone are validated in the service layer so their error messages stay
// field-specific; binding only rejects a malformed currency up front.
type ChargeRequest struct {
	Amount      int64   `json:"amount"`
	Phone       string  `json:"phone"`
	Currency    string  `json:"currency" binding:"omitempty,len=3"`
	Description *string `json:"description,omitempty"`
	ExternalRef *string `json:"external_ref,omitempty"`
}

// SandboxChargeResponse is the acknowledgment for a sandbox charge.
type SandboxChargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	Mode          string `json:"mode"`
	Amount        int64  `json:"amount"`
	Fee           int64  `json:"fee"`
	NetAmount     int64  `json:"net_amount"`
}

// LiveChargeResponse is the acknowledgment for a live charge.
type LiveChargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Fee           int64  `json:"fee"`
	PaymentMethod string `json:"payment_method"`
}

// TransactionResponse is the body for GET /v1/charge/:id.
type TransactionResponse struct {
	Success       bool       `json:"success"`
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Fee           int64      `json:"fee"`
	NetAmount     int64      `json:"net_amount"`
	PaymentMethod string     `json:"payment_method"`
	Phone         string     `json:"phone"`
	ProviderRef   *string    `json:"provider_ref,omitempty"`
	ExternalRef   *string    `json:"external_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
