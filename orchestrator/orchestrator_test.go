package orchestrator

import (
	"context"
	"testing"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
	"github.com/vaultmesh/checkout/database/store/storetest"
	"github.com/vaultmesh/checkout/provider"
)

// stubAdapter is a fixed-outcome provider.Adapter for orchestrator
// tests. It records every ExecuteStorageTransaction call it receives.
type stubAdapter struct {
	slug   string
	result *provider.TxResult
	err    error
	calls  []provider.TxParams
}

func (s *stubAdapter) Slug() string                                       { return s.slug }
func (s *stubAdapter) Initialize(context.Context) error                   { return nil }
func (s *stubAdapter) IsAvailable(context.Context) bool                   { return true }
func (s *stubAdapter) GetAvailablePlans(context.Context) ([]provider.PlanInfo, error) {
	return nil, nil
}
func (s *stubAdapter) GetTransactionExplorerURL(txHash string) string { return "https://explorer/" + txHash }

func (s *stubAdapter) ExecuteStorageTransaction(_ context.Context, params provider.TxParams) (*provider.TxResult, error) {
	s.calls = append(s.calls, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubAdapter) CheckTransactionStatus(context.Context, string) (*provider.StatusResult, error) {
	return &provider.StatusResult{Status: orm.TransactionStatusConfirmed}, nil
}

func seedPaidOrder(t *testing.T, st *storetest.Fake, providerSlug string) *orm.Order {
	t.Helper()

	p := &orm.Provider{ID: providerSlug, Slug: providerSlug, Enabled: true}
	st.SeedProvider(p)

	order := &orm.Order{
		ID:         "order-" + providerSlug,
		UserID:     "user-1",
		ProviderID: providerSlug,
		PlanID:     "plan-1",
		SizeBytes:  100 << 30,
		Status:     orm.OrderStatusPaymentCompleted,
	}
	if err := st.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return order
}

func newRegistryWith(a provider.Adapter) *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(a)
	return reg
}

func TestDispatchHappyPath(t *testing.T) {
	st := storetest.New()
	order := seedPaidOrder(t, st, "storj")
	adapter := &stubAdapter{
		slug: "storj",
		result: &provider.TxResult{
			Success:   true,
			TxHash:    "tx-1",
			Status:    orm.TransactionStatusSubmitted,
			StorageID: "bucket-1",
		},
	}
	o := New(st, newRegistryWith(adapter), nil)

	txn, err := o.Dispatch(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if txn.Status != orm.TransactionStatusSubmitted {
		t.Errorf("txn status = %v, want SUBMITTED", txn.Status)
	}
	if txn.TxHash == nil || *txn.TxHash != "tx-1" {
		t.Errorf("txn hash = %v, want tx-1", txn.TxHash)
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusBlockchainProcessing {
		t.Errorf("order status = %v, want BLOCKCHAIN_PROCESSING", gotOrder.Status)
	}
	if gotOrder.StorageID != "bucket-1" {
		t.Errorf("order storage id = %q, want bucket-1", gotOrder.StorageID)
	}
	if len(adapter.calls) != 1 {
		t.Fatalf("expected exactly one adapter call, got %d", len(adapter.calls))
	}
}

func TestDispatchRejectsOrderNotPaymentCompleted(t *testing.T) {
	st := storetest.New()
	order := seedPaidOrder(t, st, "storj")
	order.Status = orm.OrderStatusPendingPayment
	if err := st.UpdateOrder(context.Background(), order); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	o := New(st, newRegistryWith(&stubAdapter{slug: "storj"}), nil)
	_, err := o.Dispatch(context.Background(), order.ID)
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind != apperrors.KindInvalidOrderStatus {
		t.Errorf("expected KindInvalidOrderStatus, got %v", err)
	}
}

func TestDispatchIsIdempotentOnLiveTransaction(t *testing.T) {
	st := storetest.New()
	order := seedPaidOrder(t, st, "storj")
	adapter := &stubAdapter{
		slug:   "storj",
		result: &provider.TxResult{Success: true, TxHash: "tx-1", Status: orm.TransactionStatusSubmitted},
	}
	o := New(st, newRegistryWith(adapter), nil)

	first, err := o.Dispatch(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}

	// Second Dispatch call, with the order manually forced back to
	// PAYMENT_COMPLETED, must short-circuit on the still-live
	// transaction rather than submitting a second time.
	order.Status = orm.OrderStatusPaymentCompleted
	if err := st.UpdateOrder(context.Background(), order); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	second, err := o.Dispatch(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same transaction returned, got %q and %q", first.ID, second.ID)
	}
	if len(adapter.calls) != 1 {
		t.Errorf("expected the adapter to be called exactly once, got %d", len(adapter.calls))
	}
}

func TestDispatchMarksOrderFailedOnAdapterError(t *testing.T) {
	st := storetest.New()
	order := seedPaidOrder(t, st, "storj")
	adapter := &stubAdapter{
		slug:   "storj",
		result: &provider.TxResult{Success: false, Error: "upstream unavailable"},
	}
	o := New(st, newRegistryWith(adapter), nil)

	_, err := o.Dispatch(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Dispatch should report failure via order/transaction state, not error: %v", err)
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusBlockchainFailed {
		t.Errorf("order status = %v, want BLOCKCHAIN_FAILED", gotOrder.Status)
	}
}

func TestRetryTransactionResubmitsSameRow(t *testing.T) {
	st := storetest.New()
	order := seedPaidOrder(t, st, "storj")
	adapter := &stubAdapter{
		slug:   "storj",
		result: &provider.TxResult{Success: false, Error: "temporary outage"},
	}
	o := New(st, newRegistryWith(adapter), nil)

	txn, err := o.Dispatch(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if txn.Status != orm.TransactionStatusFailed {
		t.Fatalf("expected the initial dispatch to fail, got %v", txn.Status)
	}

	// The retry succeeds against the same transaction row.
	adapter.result = &provider.TxResult{Success: true, TxHash: "tx-retry", Status: orm.TransactionStatusSubmitted}
	if err := o.RetryTransaction(context.Background(), txn.ID); err != nil {
		t.Fatalf("RetryTransaction: %v", err)
	}

	gotTxn, err := st.GetBlockchainTransaction(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("GetBlockchainTransaction: %v", err)
	}
	if gotTxn.Status != orm.TransactionStatusSubmitted {
		t.Errorf("txn status = %v, want SUBMITTED", gotTxn.Status)
	}
	if gotTxn.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", gotTxn.RetryCount)
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusBlockchainProcessing {
		t.Errorf("order status = %v, want BLOCKCHAIN_PROCESSING", gotOrder.Status)
	}

	if len(adapter.calls) != 2 {
		t.Errorf("expected two adapter calls (initial + retry), got %d", len(adapter.calls))
	}
}

func TestRetryTransactionRejectsExhaustedRetries(t *testing.T) {
	st := storetest.New()
	order := seedPaidOrder(t, st, "storj")

	txn := &orm.BlockchainTransaction{
		ID:         "txn-exhausted",
		OrderID:    order.ID,
		ProviderID: order.ProviderID,
		Status:     orm.TransactionStatusFailed,
		RetryCount: DefaultMaxRetries,
		MaxRetries: DefaultMaxRetries,
	}
	if err := st.CreateBlockchainTransaction(context.Background(), txn); err != nil {
		t.Fatalf("CreateBlockchainTransaction: %v", err)
	}

	o := New(st, newRegistryWith(&stubAdapter{slug: "storj"}), nil)
	err := o.RetryTransaction(context.Background(), txn.ID)
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind != apperrors.KindMaxRetries {
		t.Errorf("expected KindMaxRetries, got %v", err)
	}
}

var _ store.Store = (*storetest.Fake)(nil)
