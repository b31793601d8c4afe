package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store/storetest"
	"github.com/vaultmesh/checkout/payment"
	"github.com/vaultmesh/checkout/payment/mockprocessor"
)

func seedUserAndPlan(t *testing.T, st *storetest.Fake) (*orm.User, *orm.StoragePlan) {
	t.Helper()

	u := &orm.User{ID: "user-1", Email: "buyer@example.com"}
	st.SeedUser(u)

	p := &orm.Provider{ID: "provider-1", Slug: "storj", Enabled: true}
	st.SeedProvider(p)

	plan := &orm.StoragePlan{
		ID:         "plan-1",
		ProviderID: p.ID,
		SizeGB:     100,
		SizeBytes:  100 << 30,
		PriceCents: 999,
		Currency:   "usd",
		Status:     orm.PlanStatusAvailable,
		Active:     true,
	}
	st.SeedPlan(plan)

	return u, plan
}

func TestCheckoutInitiateCreatesOrderAndSession(t *testing.T) {
	st := storetest.New()
	u, plan := seedUserAndPlan(t, st)
	proc := mockprocessor.New()
	c := payment.NewCheckout(st, proc)

	result, err := c.Initiate(context.Background(), payment.CheckoutInput{
		UserID:     u.ID,
		PlanID:     plan.ID,
		SuccessURL: "https://vaultmesh.test/success",
		CancelURL:  "https://vaultmesh.test/cancel",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)
	require.NotEmpty(t, result.SessionURL)

	order, err := st.GetOrder(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orm.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, plan.PriceCents, order.PriceCents, "order should snapshot plan price at creation time")
	assert.Equal(t, plan.SizeBytes, order.SizeBytes, "order should snapshot plan size at creation time")

	pay, err := st.GetPayment(context.Background(), result.PaymentID)
	require.NoError(t, err)
	if assert.NotNil(t, pay.ProcessorSessionID) {
		assert.Equal(t, result.SessionID, *pay.ProcessorSessionID)
	}
}

func TestCheckoutInitiateIsIdempotentOnKey(t *testing.T) {
	st := storetest.New()
	u, plan := seedUserAndPlan(t, st)
	proc := mockprocessor.New()
	c := payment.NewCheckout(st, proc)

	in := payment.CheckoutInput{
		UserID:         u.ID,
		PlanID:         plan.ID,
		SuccessURL:     "https://vaultmesh.test/success",
		CancelURL:      "https://vaultmesh.test/cancel",
		IdempotencyKey: "idem-key-1",
	}

	first, err := c.Initiate(context.Background(), in)
	require.NoError(t, err)

	second, err := c.Initiate(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID, "expected the same order to be resumed")
}

func TestCheckoutInitiateRejectsUnpurchasablePlan(t *testing.T) {
	st := storetest.New()
	u, plan := seedUserAndPlan(t, st)
	plan.Active = false

	proc := mockprocessor.New()
	c := payment.NewCheckout(st, proc)

	_, err := c.Initiate(context.Background(), payment.CheckoutInput{
		UserID:     u.ID,
		PlanID:     plan.ID,
		SuccessURL: "https://vaultmesh.test/success",
		CancelURL:  "https://vaultmesh.test/cancel",
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindPlanUnavailable, appErr.Kind)
}

func TestCheckoutInitiateUnknownUser(t *testing.T) {
	st := storetest.New()
	_, plan := seedUserAndPlan(t, st)
	proc := mockprocessor.New()
	c := payment.NewCheckout(st, proc)

	_, err := c.Initiate(context.Background(), payment.CheckoutInput{
		UserID:     "does-not-exist",
		PlanID:     plan.ID,
		SuccessURL: "https://vaultmesh.test/success",
		CancelURL:  "https://vaultmesh.test/cancel",
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindUserNotFound, appErr.Kind)
}
