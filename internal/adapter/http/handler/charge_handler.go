package handler

import (
	"pesa-gateway/internal/adapter/http/dto"
	"pesa-gateway/internal/adapter/http/middleware"
	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"
	"pesa-gateway/pkg/apperror"
	"pesa-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// ChargeHandler handles the charge endpoints.
type ChargeHandler struct {
	chargeSvc ports.ChargeService
}

// NewChargeHandler creates a new ChargeHandler.
func NewChargeHandler(chargeSvc ports.ChargeService) *ChargeHandler {
	return &ChargeHandler{chargeSvc: chargeSvc}
}

// CreateCharge handles POST /v1/charge.
func (h *ChargeHandler) CreateCharge(c *gin.Context) {
	account, mode, ok := callerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ack, err := h.chargeSvc.Charge(c.Request.Context(), ports.ChargeRequest{
		Account:     account,
		Mode:        mode,
		Amount:      req.Amount,
		Phone:       req.Phone,
		Currency:    req.Currency,
		Description: req.Description,
		ExternalRef: req.ExternalRef,
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toChargeResponse(ack))
}

// GetCharge handles GET /v1/charge/:id. Lookups are scoped to the
// authenticated account.
func (h *ChargeHandler) GetCharge(c *gin.Context) {
	account, _, ok := callerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	txn, err := h.chargeSvc.GetTransaction(c.Request.Context(), account.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransactionResponse{
		Success:       true,
		TransactionID: txn.ID,
		Status:        string(txn.Status),
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Fee:           txn.FeeAmount,
		NetAmount:     txn.NetAmount(),
		PaymentMethod: string(txn.Rail),
		Phone:         txn.Phone,
		ProviderRef:   txn.ProviderRef,
		ExternalRef:   txn.ExternalRef,
		CreatedAt:     txn.CreatedAt,
		CompletedAt:   txn.CompletedAt,
	})
}

func callerFromContext(c *gin.Context) (*domain.Account, domain.Mode, bool) {
	accountVal, ok := c.Get(middleware.CtxAccount)
	if !ok {
		return nil, "", false
	}
	account, ok := accountVal.(*domain.Account)
	if !ok {
		return nil, "", false
	}
	modeVal, ok := c.Get(middleware.CtxMode)
	if !ok {
		return nil, "", false
	}
	mode, ok := modeVal.(domain.Mode)
	if !ok {
		return nil, "", false
	}
	return account, mode, true
}

// toChargeResponse renders the mode-specific acknowledgment shape.
func toChargeResponse(ack *ports.ChargeAck) interface{} {
	txn := ack.Transaction
	if ack.Mode == domain.ModeSandbox {
		return dto.SandboxChargeResponse{
			Success:       true,
			TransactionID: txn.ID,
			Status:        string(txn.Status),
			Message:       ack.Message,
			Mode:          string(ack.Mode),
			Amount:        txn.Amount,
			Fee:           txn.FeeAmount,
			NetAmount:     txn.NetAmount(),
		}
	}
	return dto.LiveChargeResponse{
		Success:       true,
		TransactionID: txn.ID,
		Status:        string(txn.Status),
		Message:       ack.Message,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Fee:           txn.FeeAmount,
		PaymentMethod: string(txn.Rail),
	}
}
