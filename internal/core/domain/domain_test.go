package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID()
	assert.True(t, strings.HasPrefix(id, "txn_"))
	assert.Len(t, id, 16) // "txn_" + 12 hex chars

	// Opaque and unique per call.
	assert.NotEqual(t, id, NewTransactionID())
}

func TestTransaction_IsTerminal(t *testing.T) {
	cases := []struct {
		status   TransactionStatus
		terminal bool
	}{
		{TransactionStatusPending, false},
		{TransactionStatusHeld, false},
		{TransactionStatusSuccess, true},
		{TransactionStatusFailed, true},
		{TransactionStatusReleased, true},
		{TransactionStatusRefunded, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			txn := &Transaction{Status: tc.status}
			assert.Equal(t, tc.terminal, txn.IsTerminal())
		})
	}
}

func TestTransaction_NetAmount(t *testing.T) {
	txn := &Transaction{Amount: 10000, FeeAmount: 2250}
	assert.Equal(t, int64(7750), txn.NetAmount())
}

func TestAccount_CanGoLive(t *testing.T) {
	for _, status := range []AccountStatus{
		AccountStatusUnverified, AccountStatusEmailVerified,
		AccountStatusPending, AccountStatusRejected, AccountStatusSuspended,
	} {
		a := &Account{Status: status}
		assert.False(t, a.CanGoLive(), "status %s must not unlock live mode", status)
	}
	a := &Account{Status: AccountStatusApproved}
	assert.True(t, a.CanGoLive())
}

func TestCompliance_Transitions(t *testing.T) {
	c := &Compliance{Status: ComplianceStatusDraft}
	assert.True(t, c.CanSubmit())
	assert.False(t, c.CanReview())

	c.Status = ComplianceStatusPending
	assert.False(t, c.CanSubmit())
	assert.True(t, c.CanReview())

	c.Status = ComplianceStatusRejected
	assert.True(t, c.CanSubmit(), "rejected records may resubmit")

	c.Status = ComplianceStatusApproved
	assert.False(t, c.CanSubmit())
	assert.False(t, c.CanReview())
}
