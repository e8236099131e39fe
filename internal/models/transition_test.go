package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current TransactionStatus
		outcome EventOutcome
		want    TransactionStatus
		legal   bool
	}{
		{"pending succeeds", StatusPending, OutcomeSucceeded, StatusCompleted, true},
		{"pending fails", StatusPending, OutcomeFailed, StatusFailed, true},
		{"completed refunds", StatusCompleted, OutcomeRefunded, StatusRefunded, true},
		{"pending cannot refund", StatusPending, OutcomeRefunded, "", false},
		{"completed cannot succeed again", StatusCompleted, OutcomeSucceeded, "", false},
		{"completed cannot fail", StatusCompleted, OutcomeFailed, "", false},
		{"failed cannot succeed", StatusFailed, OutcomeSucceeded, "", false},
		{"failed cannot fail again", StatusFailed, OutcomeFailed, "", false},
		{"failed cannot refund", StatusFailed, OutcomeRefunded, "", false},
		{"refunded is final", StatusRefunded, OutcomeRefunded, "", false},
		{"refunded cannot succeed", StatusRefunded, OutcomeSucceeded, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextStatus(tt.current, tt.outcome)
			assert.Equal(t, tt.legal, ok)
			if tt.legal {
				assert.Equal(t, tt.want, next)
			}
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(StatusCompleted, OutcomeSucceeded))
	assert.True(t, IsDuplicate(StatusFailed, OutcomeFailed))
	assert.True(t, IsDuplicate(StatusRefunded, OutcomeRefunded))

	assert.False(t, IsDuplicate(StatusPending, OutcomeSucceeded))
	assert.False(t, IsDuplicate(StatusCompleted, OutcomeFailed))
	assert.False(t, IsDuplicate(StatusCompleted, OutcomeRefunded))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(StatusPending))
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusFailed))
	assert.True(t, IsTerminal(StatusRefunded))
}

func TestPaymentProviderValid(t *testing.T) {
	assert.True(t, ProviderStripe.Valid())
	assert.True(t, ProviderFlutterwave.Valid())
	assert.False(t, PaymentProvider("paypal").Valid())
	assert.False(t, PaymentProvider("").Valid())
}
