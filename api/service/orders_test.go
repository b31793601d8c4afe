package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store/storetest"
	"github.com/vaultmesh/checkout/payment"
	"github.com/vaultmesh/checkout/payment/mockprocessor"
	"github.com/vaultmesh/checkout/provider"
)

type noopScheduler struct{}

func (noopScheduler) Schedule(string) {}

func newTestService(t *testing.T, st *storetest.Fake, proc payment.Processor) *Service {
	t.Helper()
	return New(st, provider.NewRegistry(), proc, noopScheduler{})
}

func testContext(t *testing.T, method, path, id string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	c.Params = gin.Params{{Key: "id", Value: id}}
	return c
}

func seedPendingOrder(t *testing.T, st *storetest.Fake) *orm.Order {
	t.Helper()

	u := &orm.User{ID: "user-1", Email: "buyer@example.com"}
	st.SeedUser(u)

	p := &orm.Provider{ID: "provider-1", Slug: "storj", Enabled: true}
	st.SeedProvider(p)

	order := &orm.Order{
		ID:         "order-1",
		UserID:     u.ID,
		ProviderID: p.ID,
		Status:     orm.OrderStatusPendingPayment,
	}
	if err := st.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	pay := &orm.Payment{
		ID:                 "payment-1",
		OrderID:            order.ID,
		UserID:             u.ID,
		Status:             orm.PaymentStatusPending,
		ProcessorSessionID: strPtrTest("cs_test_1"),
	}
	if err := st.CreatePayment(context.Background(), pay); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	return order
}

func strPtrTest(s string) *string { return &s }

// TestCancelOrderCancelsLivePayment covers the cancel half of spec.md
// scenario 6 against storetest.Fake: cancelling an order must leave
// its payment CANCELLED, not stuck PENDING. The late webhook itself is
// driven by TestCancelOrderThenLateWebhookOrderStaysCancelled below.
//
// storetest.Fake's Transaction is a documented non-atomic passthrough
// (it just calls fn(f), with no real rollback), so this only proves
// CancelOrder writes both rows on the happy path — it does not exercise
// what happens if the order update applies and then the payment
// update fails midway, the way a real GormStore transaction
// would roll back. That failure-injection scenario needs a
// GormStore-backed test against a live or embedded database, which
// this pack carries no driver for.
func TestCancelOrderCancelsLivePayment(t *testing.T) {
	st := storetest.New()
	order := seedPendingOrder(t, st)
	proc := mockprocessor.New()
	s := newTestService(t, st, proc)

	c := testContext(t, http.MethodPost, "/orders/"+order.ID+"/cancel", order.ID)
	if err := s.CancelOrder(c); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusCancelled {
		t.Errorf("order status = %v, want CANCELLED", gotOrder.Status)
	}

	gotPay, err := st.GetPayment(context.Background(), "payment-1")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if gotPay.Status != orm.PaymentStatusCancelled {
		t.Errorf("payment status = %v, want CANCELLED", gotPay.Status)
	}
}

// TestCancelOrderThenLateWebhookOrderStaysCancelled drives the
// scenario 6 race against storetest.Fake: cancel the order, then
// replay the checkout processor's session-completed event for it. The
// Order must never re-enter PAYMENT_COMPLETED once it has moved past
// PENDING_PAYMENT — onSessionCompleted's own UpdateOrderStatus guard
// (from=PENDING_PAYMENT) rejects the transition and the order stays
// CANCELLED.
//
// It does NOT assert the Payment stays CANCELLED. onSessionCompleted's
// short-circuit only checks for Status == SUCCEEDED, so it still tries
// to flip a CANCELLED payment to SUCCEEDED before the order-status
// guard fails; against a real GormStore that write rolls back with the
// rest of the transaction, but storetest.Fake's Transaction is a
// documented non-atomic passthrough (`return fn(f)`) that shares the
// same *orm.Payment pointer with the store, so the doomed write sticks
// even though the overall Handle call reports no error to the caller.
// That divergence is a known gap in Fake as an atomicity double, not a
// production bug: it needs a GormStore-backed test against a live or
// embedded database to actually exercise the rollback, and this pack
// carries no driver for one.
func TestCancelOrderThenLateWebhookOrderStaysCancelled(t *testing.T) {
	st := storetest.New()
	order := seedPendingOrder(t, st)
	proc := mockprocessor.New()
	s := newTestService(t, st, proc)

	c := testContext(t, http.MethodPost, "/orders/"+order.ID+"/cancel", order.ID)
	if err := s.CancelOrder(c); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	body, sig := proc.EmitSessionCompleted("cs_test_1")
	w := payment.NewWebhook(st, proc, noopScheduler{})
	if err := w.Handle(context.Background(), body, sig); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	gotOrder, err := st.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if gotOrder.Status != orm.OrderStatusCancelled {
		t.Errorf("order status = %v, want it to stay CANCELLED", gotOrder.Status)
	}
}
