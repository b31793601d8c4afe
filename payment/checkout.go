package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
)

const sessionTTL = 30 * time.Minute

// CheckoutResult is returned to the API layer after a successful
// checkout initiation.
type CheckoutResult struct {
	SessionID  string
	SessionURL string
	OrderID    string
	PaymentID  string
}

// CheckoutInput carries the caller-supplied request per SPEC_FULL.md
// §4.3.
type CheckoutInput struct {
	UserID         string
	PlanID         string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// Checkout is the Checkout Initiator: it creates the Order/Payment
// pair and a hosted-checkout session in one logical unit, guarded by
// an optional caller-supplied idempotency key.
type Checkout struct {
	Store     store.Store
	Processor Processor
}

// NewCheckout returns a Checkout initiator.
func NewCheckout(st store.Store, proc Processor) *Checkout {
	return &Checkout{Store: st, Processor: proc}
}

// Initiate implements the algorithm of SPEC_FULL.md §4.3.
func (c *Checkout) Initiate(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.IdempotencyKey != "" {
		if existing, err := c.Store.GetOrderByIdempotencyKey(ctx, in.IdempotencyKey); err == nil {
			return c.resumeExisting(ctx, existing)
		} else if err != store.ErrNotFound {
			return nil, err
		}
	}

	user, err := c.Store.GetUser(ctx, in.UserID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
		}
		return nil, err
	}

	plan, err := c.Store.GetPlan(ctx, in.PlanID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.New(apperrors.KindPlanUnavailable, "plan not found")
		}
		return nil, err
	}
	if !plan.IsPurchasable() {
		return nil, apperrors.New(apperrors.KindPlanUnavailable, "plan is not available for purchase")
	}

	customerID, err := c.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	order := &orm.Order{
		ID:           uuid.NewString(),
		OrderNumber:  newOrderNumber(),
		UserID:       user.ID,
		ProviderID:   plan.ProviderID,
		PlanID:       plan.ID,
		SizeGB:       plan.SizeGB,
		SizeBytes:    plan.SizeBytes,
		DurationDays: plan.DurationDays,
		PriceCents:   plan.PriceCents,
		Status:       orm.OrderStatusPendingPayment,
	}
	if in.IdempotencyKey != "" {
		order.IdempotencyKey = &in.IdempotencyKey
	}

	paymentIdempotencyKey := uuid.NewString()
	pay := &orm.Payment{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		AmountCents:    plan.PriceCents,
		Currency:       plan.Currency,
		Status:         orm.PaymentStatusPending,
		IdempotencyKey: &paymentIdempotencyKey,
	}

	if err := c.Store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		pay.OrderID = order.ID
		return tx.CreatePayment(ctx, pay)
	}); err != nil {
		return nil, err
	}

	session, err := c.Processor.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		OrderID:     order.ID,
		PaymentID:   pay.ID,
		UserID:      user.ID,
		PlanID:      plan.ID,
		CustomerID:  customerID,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		SuccessURL:  in.SuccessURL,
		CancelURL:   in.CancelURL,
		TTL:         sessionTTL,
	})
	if err != nil {
		// Order/Payment stay in PENDING_PAYMENT/PENDING with no session
		// attached; harmless, since no buyer can reach them. No expiry
		// event or sweep moves them on.
		logrus.WithError(err).WithField("order_id", order.ID).
			Error("checkout session creation failed, order left pending")
		return nil, apperrors.Wrap(apperrors.KindPaymentError, err, "failed to create checkout session")
	}

	pay.ProcessorSessionID = &session.SessionID
	if err := c.Store.UpdatePayment(ctx, pay); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		SessionID:  session.SessionID,
		SessionURL: session.SessionURL,
		OrderID:    order.ID,
		PaymentID:  pay.ID,
	}, nil
}

func (c *Checkout) resumeExisting(ctx context.Context, order *orm.Order) (*CheckoutResult, error) {
	pay, err := c.Store.GetLivePaymentByOrderID(ctx, order.ID)
	if err != nil {
		if err == store.ErrNotFound {
			return &CheckoutResult{OrderID: order.ID}, nil
		}
		return nil, err
	}

	if pay.ProcessorSessionID == nil {
		return &CheckoutResult{OrderID: order.ID, PaymentID: pay.ID}, nil
	}

	session, err := c.Processor.RetrieveCheckoutSession(ctx, *pay.ProcessorSessionID)
	if err != nil {
		// Session expired or absent server-side; return what we have so
		// the caller can retry with a fresh idempotency key.
		logrus.WithError(err).WithField("order_id", order.ID).
			Warn("could not retrieve existing checkout session")
		return &CheckoutResult{OrderID: order.ID, PaymentID: pay.ID}, nil
	}

	return &CheckoutResult{
		SessionID:  session.SessionID,
		SessionURL: session.SessionURL,
		OrderID:    order.ID,
		PaymentID:  pay.ID,
	}, nil
}

func (c *Checkout) ensureCustomer(ctx context.Context, user *orm.User) (string, error) {
	if user.ProcessorCustomerID != nil {
		return *user.ProcessorCustomerID, nil
	}

	customerID, err := c.Processor.CreateCustomer(ctx, user.ID, user.Email)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindPaymentError, err, "failed to create processor customer")
	}

	if err := c.Store.SetUserProcessorCustomer(ctx, user.ID, customerID); err != nil {
		return "", err
	}

	return customerID, nil
}

func newOrderNumber() string {
	return "ORD-" + uuid.NewString()[:8]
}
