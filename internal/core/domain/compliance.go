package domain

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceStatus represents the review state of a KYC record.
type ComplianceStatus string

const (
	ComplianceStatusDraft    ComplianceStatus = "DRAFT"
	ComplianceStatusPending  ComplianceStatus = "PENDING"
	ComplianceStatusApproved ComplianceStatus = "APPROVED"
	ComplianceStatusRejected ComplianceStatus = "REJECTED"
)

// Compliance is the merchant verification (KYC) record, one-to-one with
// an Account. It gates live-mode charging: an account is only approved
// after its compliance record is. The merchant creates and resubmits it,
// an administrator reviews it.
type Compliance struct {
	ID               uuid.UUID        `json:"id"`
	AccountID        uuid.UUID        `json:"account_id"`
	DirectorName     string           `json:"director_name"`
	DirectorIDNumber string           `json:"director_id_number"`
	PhysicalAddress  string           `json:"physical_address"`
	TaxPIN           string           `json:"tax_pin"`
	MonthlyVolume    int64            `json:"monthly_volume"` // declared, minor units
	CertificateDoc   string           `json:"certificate_doc"`
	IDDoc            string           `json:"id_doc"`
	Status           ComplianceStatus `json:"status"`
	RejectionReason  *string          `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CanSubmit returns true if the record may move to PENDING review.
// DRAFT submits; REJECTED may resubmit.
func (c *Compliance) CanSubmit() bool {
	return c.Status == ComplianceStatusDraft || c.Status == ComplianceStatusRejected
}

// CanReview returns true if an administrator may approve or reject.
func (c *Compliance) CanReview() bool {
	return c.Status == ComplianceStatusPending
}
