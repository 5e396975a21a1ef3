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

const complianceColumns = `id, account_id, director_name, director_id_number, physical_address,
		tax_pin, monthly_volume, certificate_doc, id_doc, status, rejection_reason, created_at, updated_at`

// ComplianceRepo implements ports.ComplianceRepository. The state-machine
// guards live in the UPDATE predicates, so a concurrent submit/review
// observes a clean lost-the-race false instead of clobbering state.
type ComplianceRepo struct {
	pool Pool
}

// NewComplianceRepo creates a new ComplianceRepo.
func NewComplianceRepo(pool Pool) *ComplianceRepo {
	return &ComplianceRepo{pool: pool}
}

// Create inserts a new DRAFT compliance record.
func (r *ComplianceRepo) Create(ctx context.Context, c *domain.Compliance) error {
	query := `INSERT INTO compliance_records (` + complianceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.AccountID, c.DirectorName, c.DirectorIDNumber, c.PhysicalAddress,
		c.TaxPIN, c.MonthlyVolume, c.CertificateDoc, c.IDDoc, c.Status,
		c.RejectionReason, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert compliance record: %w", err)
	}
	return nil
}

// GetByAccountID fetches the account's compliance record, nil when none.
func (r *ComplianceRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Compliance, error) {
	query := `SELECT ` + complianceColumns + ` FROM compliance_records WHERE account_id = $1`

	var c domain.Compliance
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&c.ID, &c.AccountID, &c.DirectorName, &c.DirectorIDNumber, &c.PhysicalAddress,
		&c.TaxPIN, &c.MonthlyVolume, &c.CertificateDoc, &c.IDDoc, &c.Status,
		&c.RejectionReason, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan compliance record: %w", err)
	}
	return &c, nil
}

// Submit moves DRAFT or REJECTED to PENDING review.
func (r *ComplianceRepo) Submit(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE compliance_records
		SET status = 'PENDING', rejection_reason = NULL, updated_at = $1
		WHERE id = $2 AND status IN ('DRAFT', 'REJECTED')`

	tag, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("submit compliance record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Review moves PENDING to APPROVED or REJECTED.
func (r *ComplianceRepo) Review(ctx context.Context, id uuid.UUID, approved bool, reason *string) (bool, error) {
	status := domain.ComplianceStatusRejected
	if approved {
		status = domain.ComplianceStatusApproved
		reason = nil
	}

	query := `UPDATE compliance_records
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, status, reason, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("review compliance record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
