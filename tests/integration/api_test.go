package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpHandler "pesa-gateway/internal/adapter/http/handler"
	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/fee"
	"pesa-gateway/internal/core/phone"
	"pesa-gateway/internal/service"
	"pesa-gateway/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sandboxKey = "sk_test_integration_0001"
	liveKey    = "sk_live_integration_0001"
)

type testEnv struct {
	accounts  *inMemoryAccountRepo
	ledger    *inMemoryTransactionRepo
	jobs      *inMemoryWebhookJobRepo
	scheduler *worker.TimerScheduler
	router    *gin.Engine
	account   *domain.Account
}

// newTestEnv wires the full charge stack over in-memory storage. The
// simulator fires after simDelay with a deterministic outcome.
func newTestEnv(t *testing.T, simDelay time.Duration, simSucceeds bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	env := &testEnv{
		accounts: newInMemoryAccountRepo(),
		ledger:   newInMemoryTransactionRepo(),
		jobs:     newInMemoryWebhookJobRepo(),
	}

	now := time.Now().UTC()
	env.account = &domain.Account{
		ID:           uuid.New(),
		BusinessName: "Duka Supplies",
		Email:        "owner@duka.example",
		Status:       domain.AccountStatusApproved,
		SandboxKey:   sandboxKey,
		LiveKeyHash:  service.FingerprintKey(liveKey),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, env.accounts.Create(context.Background(), env.account))

	env.scheduler = worker.NewTimerScheduler(log)
	t.Cleanup(env.scheduler.Stop)

	outcome := 0.99
	if simSucceeds {
		outcome = 0.0
	}

	webhookSvc := service.NewWebhookService(env.accounts, env.jobs, log)
	simulator := service.NewSettlementSimulator(env.ledger, webhookSvc, env.scheduler, simDelay, 0.8, log).
		WithRandSource(func() float64 { return outcome })
	liveAdapter := service.NewLiveSettlementAdapter(env.ledger, webhookSvc, log)

	authSvc := service.NewAuthService(env.accounts, nil, log)
	chargeSvc := service.NewChargeService(
		env.ledger, phone.NewClassifier("254"), fee.NewCalculator(250, 2000),
		simulator, liveAdapter, 100, "KES", simDelay, log,
	)

	env.router = httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:   authSvc,
		ChargeSvc: chargeSvc,
		Logger:    log,
	})
	return env
}

func (env *testEnv) post(t *testing.T, apiKey string, body map[string]interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/charge", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	env.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func (env *testEnv) get(t *testing.T, apiKey, txnID string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/charge/"+txnID, nil)
	req.Header.Set("X-API-Key", apiKey)
	env.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func (env *testEnv) waitForTerminal(t *testing.T, txnID string) *domain.Transaction {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		txn, err := env.ledger.GetByID(context.Background(), txnID)
		require.NoError(t, err)
		require.NotNil(t, txn)
		if txn.IsTerminal() {
			return txn
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("transaction %s never left PENDING", txnID)
	return nil
}

func TestSandboxChargeLifecycle(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond, true)

	w, resp := env.post(t, sandboxKey, map[string]interface{}{
		"amount": 10000,
		"phone":  "0712345678",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "PENDING", resp["status"])
	assert.Equal(t, "sandbox", resp["mode"])
	assert.Equal(t, float64(10000), resp["amount"])
	assert.Equal(t, float64(2250), resp["fee"])
	assert.Equal(t, float64(7750), resp["net_amount"])
	assert.Contains(t, resp["message"], "[SANDBOX] STK Push simulated to 254712345678")

	txnID := resp["transaction_id"].(string)
	assert.True(t, strings.HasPrefix(txnID, "txn_"))

	// Settlement resolves out-of-band after the simulator delay.
	txn := env.waitForTerminal(t, txnID)
	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
	require.NotNil(t, txn.ProviderRef)
	assert.True(t, strings.HasPrefix(*txn.ProviderRef, "SANDBOX_"))
	assert.Equal(t, true, txn.Metadata["sandbox_simulated"])
	require.NotNil(t, txn.CompletedAt)

	// Status polling reflects the terminal state.
	wGet, respGet := env.get(t, sandboxKey, txnID)
	require.Equal(t, http.StatusOK, wGet.Code)
	assert.Equal(t, "SUCCESS", respGet["status"])
	assert.Equal(t, "MPESA", respGet["payment_method"])
}

func TestSandboxChargeFailureOutcome(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond, false)

	w, resp := env.post(t, sandboxKey, map[string]interface{}{
		"amount": 50000,
		"phone":  "0712345678",
	})
	require.Equal(t, http.StatusOK, w.Code)

	txn := env.waitForTerminal(t, resp["transaction_id"].(string))
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
	assert.Nil(t, txn.ProviderRef)
}

func TestSandboxChargeEnqueuesWebhook(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond, true)
	require.NoError(t, env.accounts.SetWebhook(context.Background(),
		env.account.ID, "https://merchant.example/hooks", "whsec_abc"))

	_, resp := env.post(t, sandboxKey, map[string]interface{}{
		"amount": 10000,
		"phone":  "0712345678",
	})
	env.waitForTerminal(t, resp["transaction_id"].(string))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && env.jobs.countByStatus(domain.WebhookJobStatusPending) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, env.jobs.countByStatus(domain.WebhookJobStatusPending))
}

func TestChargeValidationErrors(t *testing.T) {
	env := newTestEnv(t, time.Hour, true)

	cases := []struct {
		name     string
		body     map[string]interface{}
		wantCode int
		wantMsg  string
	}{
		{"amount below floor", map[string]interface{}{"amount": 50, "phone": "0712345678"},
			http.StatusBadRequest, "Amount must be at least 100 cents (KSh 1)"},
		{"missing phone", map[string]interface{}{"amount": 10000},
			http.StatusBadRequest, "Phone number is required"},
		{"phone too short", map[string]interface{}{"amount": 10000, "phone": "07123"},
			http.StatusBadRequest, "Invalid phone number format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := env.post(t, sandboxKey, tc.body)
			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tc.wantMsg, resp["error"])
		})
	}

	// No ledger rows for rejected requests.
	env.ledger.mu.RLock()
	defer env.ledger.mu.RUnlock()
	assert.Empty(t, env.ledger.transactions)
}

// Normalization prepends the country code to any number missing it, so a
// foreign-looking number classifies as M-Pesa instead of being rejected.
func TestChargeCoercesNonLocalNumber(t *testing.T) {
	env := newTestEnv(t, time.Hour, true)

	w, resp := env.post(t, sandboxKey, map[string]interface{}{
		"amount": 10000,
		"phone":  "15551234567",
	})
	require.Equal(t, http.StatusOK, w.Code)

	txn, err := env.ledger.GetByID(context.Background(), resp["transaction_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "25415551234567", txn.Phone)
	assert.Equal(t, domain.RailMpesa, txn.Rail)
}

func TestAuthRejections(t *testing.T) {
	env := newTestEnv(t, time.Hour, true)

	// Seed an account that has not cleared compliance.
	pending := &domain.Account{
		ID:          uuid.New(),
		Email:       "pending@duka.example",
		Status:      domain.AccountStatusPending,
		SandboxKey:  "sk_test_pending_0001",
		LiveKeyHash: service.FingerprintKey("sk_live_pending_0001"),
	}
	require.NoError(t, env.accounts.Create(context.Background(), pending))

	body := map[string]interface{}{"amount": 10000, "phone": "0712345678"}

	w, resp := env.post(t, "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API key", resp["error"])

	w, resp = env.post(t, "sk_test_wrong", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API key", resp["error"])

	// Live key on an unapproved account is a distinct failure.
	w, resp = env.post(t, "sk_live_pending_0001", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Live mode requires an approved compliance record", resp["error"])

	// Its sandbox key still works.
	w, _ = env.post(t, "sk_test_pending_0001", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuspendedAccountRejected(t *testing.T) {
	env := newTestEnv(t, time.Hour, true)
	require.NoError(t, env.accounts.UpdateStatus(context.Background(),
		env.account.ID, domain.AccountStatusSuspended))

	w, resp := env.post(t, sandboxKey, map[string]interface{}{
		"amount": 10000, "phone": "0712345678",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Account is suspended", resp["error"])
}

func TestLiveChargeAcknowledgment(t *testing.T) {
	env := newTestEnv(t, time.Hour, true)

	w, resp := env.post(t, liveKey, map[string]interface{}{
		"amount": 250000,
		"phone":  "+254 812 345 678",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "PENDING", resp["status"])
	assert.Equal(t, "STK Push sent to 254812345678", resp["message"])
	assert.Equal(t, "KES", resp["currency"])
	assert.Equal(t, "AIRTEL", resp["payment_method"])
	assert.NotContains(t, resp, "mode")

	// No provider integration: the transaction stays PENDING.
	txn, err := env.ledger.GetByID(context.Background(), resp["transaction_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
	assert.Equal(t, "live", txn.Metadata["mode"])
}

func TestTransportGuards(t *testing.T) {
	env := newTestEnv(t, time.Hour, true)

	// Wrong verb gets the structured 405.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/charge", nil)
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "Method not allowed")

	// Preflight is answered before auth.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/v1/charge", nil)
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetChargeScopedToOwner(t *testing.T) {
	env := newTestEnv(t, time.Hour, true)

	other := &domain.Account{
		ID:         uuid.New(),
		Email:      "other@duka.example",
		Status:     domain.AccountStatusApproved,
		SandboxKey: "sk_test_other_0001",
	}
	require.NoError(t, env.accounts.Create(context.Background(), other))

	_, resp := env.post(t, sandboxKey, map[string]interface{}{
		"amount": 10000, "phone": "0712345678",
	})
	txnID := resp["transaction_id"].(string)

	// The owner sees it.
	w, _ := env.get(t, sandboxKey, txnID)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another account gets not-found, not someone else's data.
	w, respOther := env.get(t, "sk_test_other_0001", txnID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, respOther["success"])
}

func TestReconcilerFailsStaleCharge(t *testing.T) {
	env := newTestEnv(t, time.Hour, true) // simulator never fires in time

	_, resp := env.post(t, sandboxKey, map[string]interface{}{
		"amount": 10000, "phone": "0712345678",
	})
	txnID := resp["transaction_id"].(string)

	// Backdate the row past the cutoff, then sweep.
	env.ledger.mu.Lock()
	env.ledger.transactions[txnID].CreatedAt = time.Now().UTC().Add(-time.Hour)
	env.ledger.mu.Unlock()

	rec := worker.NewReconciler(env.ledger, nil, time.Minute, 15*time.Minute, zerolog.Nop())
	failed, err := rec.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	txn, err := env.ledger.GetByID(context.Background(), txnID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
}
