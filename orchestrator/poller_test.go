package orchestrator

import (
	"context"
	"testing"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store/storetest"
	"github.com/vaultmesh/checkout/provider"
)

func seedProcessingOrderWithTx(t *testing.T, st *storetest.Fake, providerSlug string) (*orm.Order, *orm.BlockchainTransaction) {
	t.Helper()

	st.SeedProvider(&orm.Provider{ID: providerSlug, Slug: providerSlug, Enabled: true})

	order := &orm.Order{
		ID:           "order-poll-" + providerSlug,
		UserID:       "user-1",
		ProviderID:   providerSlug,
		PlanID:       "plan-1",
		DurationDays: 30,
		Status:       orm.OrderStatusBlockchainProcessing,
	}
	if err := st.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	hash := "0xtxhash"
	txn := &orm.BlockchainTransaction{
		ID:         "txn-poll-" + providerSlug,
		OrderID:    order.ID,
		ProviderID: providerSlug,
		Status:     orm.TransactionStatusSubmitted,
		TxHash:     &hash,
		MaxRetries: DefaultMaxRetries,
	}
	if err := st.CreateBlockchainTransaction(context.Background(), txn); err != nil {
		t.Fatalf("CreateBlockchainTransaction: %v", err)
	}

	return order, txn
}

func TestPollOnceMarksOrderCompletedWhenConfirmed(t *testing.T) {
	st := storetest.New()
	order, txn := seedProcessingOrderWithTx(t, st, "storj")
	adapter := &stubAdapter{slug: "storj"}
	reg := newRegistryWith(adapter)

	// pollOnce calls adapter.CheckTransactionStatus, whose stub result
	// always reports CONFIRMED regardless of hash.
	p := NewPoller(st, reg)

	done, err := p.pollOnce(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("pollOnce: %v", err)
	}
	if !done {
		t.Fatal("expected pollOnce to report the transaction reached a terminal state")
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusCompleted {
		t.Errorf("order status = %v, want COMPLETED", gotOrder.Status)
	}
	if gotOrder.ExpiresAt == nil {
		t.Error("expected ExpiresAt to be set on completion")
	}
}

func TestPollOnceStopsOnceTransactionIsTerminal(t *testing.T) {
	st := storetest.New()
	_, txn := seedProcessingOrderWithTx(t, st, "storj")
	txn.Status = orm.TransactionStatusConfirmed
	if err := st.UpdateBlockchainTransaction(context.Background(), txn); err != nil {
		t.Fatalf("UpdateBlockchainTransaction: %v", err)
	}

	p := NewPoller(st, newRegistryWith(&stubAdapter{slug: "storj"}))
	done, err := p.pollOnce(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("pollOnce: %v", err)
	}
	if !done {
		t.Error("expected pollOnce to short-circuit on an already-terminal transaction")
	}
}

func TestApplyStatusMarksOrderFailedOnFailedStatus(t *testing.T) {
	st := storetest.New()
	order, txn := seedProcessingOrderWithTx(t, st, "storj")

	done, err := applyStatus(context.Background(), st, txn, order, &provider.StatusResult{
		Status:        orm.TransactionStatusFailed,
		StatusMessage: "reverted",
	})
	if err != nil {
		t.Fatalf("applyStatus: %v", err)
	}
	if !done {
		t.Error("expected FAILED to be treated as terminal")
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusBlockchainFailed {
		t.Errorf("order status = %v, want BLOCKCHAIN_FAILED", gotOrder.Status)
	}
}

func TestApplyStatusIsANoOpWhileStillConfirming(t *testing.T) {
	st := storetest.New()
	order, txn := seedProcessingOrderWithTx(t, st, "storj")

	done, err := applyStatus(context.Background(), st, txn, order, &provider.StatusResult{
		Status:        orm.TransactionStatusConfirming,
		Confirmations: 2,
	})
	if err != nil {
		t.Fatalf("applyStatus: %v", err)
	}
	if done {
		t.Error("expected CONFIRMING to not be terminal")
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusBlockchainProcessing {
		t.Errorf("order status = %v, want unchanged BLOCKCHAIN_PROCESSING", gotOrder.Status)
	}
}
