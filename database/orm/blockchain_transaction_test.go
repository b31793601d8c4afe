package orm

import "testing"

func TestBlockchainTransactionCanRetry(t *testing.T) {
	testCases := []struct {
		name string
		txn  BlockchainTransaction
		want bool
	}{
		{
			name: "failed and under budget",
			txn:  BlockchainTransaction{Status: TransactionStatusFailed, RetryCount: 1, MaxRetries: 3},
			want: true,
		},
		{
			name: "failed but exhausted",
			txn:  BlockchainTransaction{Status: TransactionStatusFailed, RetryCount: 3, MaxRetries: 3},
			want: false,
		},
		{
			name: "not failed yet",
			txn:  BlockchainTransaction{Status: TransactionStatusConfirming, RetryCount: 0, MaxRetries: 3},
			want: false,
		},
	}

	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.txn.CanRetry(); got != c.want {
				t.Errorf("CanRetry() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestTransactionStatusIsTerminal(t *testing.T) {
	if !TransactionStatusConfirmed.IsTerminal() {
		t.Error("CONFIRMED should be terminal")
	}
	if !TransactionStatusFailed.IsTerminal() {
		t.Error("FAILED should be terminal")
	}
	if TransactionStatusConfirming.IsTerminal() {
		t.Error("CONFIRMING should not be terminal")
	}
}

func TestTransactionStatusFromString(t *testing.T) {
	if got := TransactionStatusFromString("CONFIRMED"); got != TransactionStatusConfirmed {
		t.Errorf("FromString(CONFIRMED) = %v, want CONFIRMED", got)
	}
	if got := TransactionStatusFromString("bogus"); got != TransactionStatusUnknown {
		t.Errorf("FromString(bogus) = %v, want UNKNOWN", got)
	}
}
