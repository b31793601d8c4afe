package orm

import "testing"

func TestOrderStatusCanTransition(t *testing.T) {
	testCases := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{
			name: "pending payment to payment completed",
			from: OrderStatusPendingPayment,
			to:   OrderStatusPaymentCompleted,
			want: true,
		},
		{
			name: "pending payment can absorb a late payment_intent.payment_failed",
			from: OrderStatusPendingPayment,
			to:   OrderStatusPaymentFailed,
			want: true,
		},
		{
			name: "payment completed cannot skip straight to completed",
			from: OrderStatusPaymentCompleted,
			to:   OrderStatusCompleted,
			want: false,
		},
		{
			name: "blockchain processing completes directly on confirmation",
			from: OrderStatusBlockchainProcessing,
			to:   OrderStatusCompleted,
			want: true,
		},
		{
			name: "blockchain failed loops back for an operator retry",
			from: OrderStatusBlockchainFailed,
			to:   OrderStatusBlockchainProcessing,
			want: true,
		},
		{
			name: "blockchain failed cannot jump directly to completed",
			from: OrderStatusBlockchainFailed,
			to:   OrderStatusCompleted,
			want: false,
		},
		{
			name: "completed can be refunded",
			from: OrderStatusCompleted,
			to:   OrderStatusRefunded,
			want: true,
		},
		{
			name: "unknown status has no outgoing edges",
			from: OrderStatusUnknown,
			to:   OrderStatusPendingPayment,
			want: false,
		},
	}

	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.from.CanTransition(c.to); got != c.want {
				t.Errorf("%s.CanTransition(%s) = %v, want %v", c.from, c.to, got, c.want)
			}
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	testCases := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusCompleted, true},
		{OrderStatusRefunded, true},
		{OrderStatusCancelled, true},
		{OrderStatusPaymentFailed, true},
		{OrderStatusBlockchainFailed, true},
		{OrderStatusPendingPayment, false},
		{OrderStatusBlockchainProcessing, false},
	}

	for _, c := range testCases {
		if got := c.status.IsTerminal(); got != c.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestOrderStatusString(t *testing.T) {
	if got := OrderStatusPaymentCompleted.String(); got != "PAYMENT_COMPLETED" {
		t.Errorf("String() = %q, want PAYMENT_COMPLETED", got)
	}
	if got := OrderStatus(999).String(); got != "UNKNOWN" {
		t.Errorf("String() for out-of-range status = %q, want UNKNOWN", got)
	}
}
