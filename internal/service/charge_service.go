package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/fee"
	"pesa-gateway/internal/core/phone"
	"pesa-gateway/internal/core/ports"
	"pesa-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChargeServiceImpl implements ports.ChargeService: it validates the
// request, classifies the payment rail, computes the fee, persists the
// PENDING transaction and dispatches settlement out-of-band. Exactly one
// ledger insert per successful validation pass; nothing is created for a
// request that fails before the insert.
type ChargeServiceImpl struct {
	ledger     ports.TransactionRepository
	classifier *phone.Classifier
	fees       fee.Calculator
	sandbox    ports.SettlementStrategy
	live       ports.SettlementStrategy
	minAmount  int64
	currency   string
	simDelay   time.Duration
	log        zerolog.Logger
}

// NewChargeService creates a new ChargeServiceImpl.
func NewChargeService(
	ledger ports.TransactionRepository,
	classifier *phone.Classifier,
	fees fee.Calculator,
	sandbox ports.SettlementStrategy,
	live ports.SettlementStrategy,
	minAmount int64,
	currency string,
	simDelay time.Duration,
	log zerolog.Logger,
) *ChargeServiceImpl {
	return &ChargeServiceImpl{
		ledger:     ledger,
		classifier: classifier,
		fees:       fees,
		sandbox:    sandbox,
		live:       live,
		minAmount:  minAmount,
		currency:   currency,
		simDelay:   simDelay,
		log:        log,
	}
}

// Charge runs the orchestration pipeline for one charge request. The
// caller has already been authenticated; req.Mode decides the settlement
// strategy and the acknowledgment shape.
func (s *ChargeServiceImpl) Charge(ctx context.Context, req ports.ChargeRequest) (*ports.ChargeAck, error) {
	if req.Amount < s.minAmount {
		return nil, apperror.ErrAmountTooLow(s.minAmount)
	}
	if req.Phone == "" {
		return nil, apperror.ErrPhoneRequired()
	}

	canonical, rail, err := s.classifier.NormalizeAndClassify(req.Phone)
	if err != nil {
		if errors.Is(err, phone.ErrInvalidPhone) {
			return nil, apperror.ErrInvalidPhone()
		}
		return nil, apperror.ErrUnsupportedRail()
	}

	feeAmount := s.fees.Fee(req.Amount)

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          domain.NewTransactionID(),
		AccountID:   req.Account.ID,
		Amount:      req.Amount,
		Currency:    currency,
		Phone:       canonical,
		Rail:        rail,
		Status:      domain.TransactionStatusPending,
		FeeAmount:   feeAmount,
		FeeRate:     s.fees.Rate(),
		Description: req.Description,
		ExternalRef: req.ExternalRef,
		Metadata: map[string]interface{}{
			"mode": string(req.Mode),
			"ip":   clientIPOrUnknown(req.ClientIP),
		},
		CreatedAt: now,
	}

	if err := s.ledger.Create(ctx, txn); err != nil {
		s.log.Error().Err(err).Str("txn_id", txn.ID).Msg("transaction insert failed")
		return nil, apperror.ErrPersistence(err)
	}

	ack := &ports.ChargeAck{Transaction: txn, Mode: req.Mode}
	switch req.Mode {
	case domain.ModeSandbox:
		if err := s.sandbox.Dispatch(ctx, txn); err != nil {
			// Transaction stays PENDING; the reconciliation sweep picks it up.
			s.log.Error().Err(err).Str("txn_id", txn.ID).Msg("sandbox settlement dispatch failed")
		}
		ack.Message = fmt.Sprintf("[SANDBOX] STK Push simulated to %s. Check status in ~%d seconds.",
			canonical, int(s.simDelay.Seconds()))
	default:
		if err := s.live.Dispatch(ctx, txn); err != nil {
			s.log.Error().Err(err).Str("txn_id", txn.ID).Msg("live settlement dispatch failed")
		}
		ack.Message = fmt.Sprintf("STK Push sent to %s", canonical)
	}

	s.log.Info().
		Str("txn_id", txn.ID).
		Str("account_id", req.Account.ID.String()).
		Str("mode", string(req.Mode)).
		Str("rail", string(rail)).
		Int64("amount", req.Amount).
		Int64("fee", feeAmount).
		Msg("charge accepted")

	return ack, nil
}

// GetTransaction returns a transaction owned by the given account.
func (s *ChargeServiceImpl) GetTransaction(ctx context.Context, accountID uuid.UUID, txnID string) (*domain.Transaction, error) {
	txn, err := s.ledger.GetByIDForAccount(ctx, accountID, txnID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transaction lookup: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return txn, nil
}

func clientIPOrUnknown(ip string) string {
	if ip == "" {
		return "unknown"
	}
	return ip
}
