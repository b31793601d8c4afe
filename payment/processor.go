// Package payment mediates hosted checkout sessions and webhook events
// against a payment processor (Stripe-shaped in production; the
// interface is processor-agnostic). Grounded on the reference
// Provider interface shape (CreateIntent / VerifyWebhook) but adapted
// to a session-based checkout flow per SPEC_FULL.md §4.3-4.4.
package payment

import (
	"context"
	"time"
)

// CheckoutSessionRequest describes a hosted-checkout session to open.
type CheckoutSessionRequest struct {
	OrderID          string
	PaymentID        string
	UserID           string
	PlanID           string
	CustomerID       string // processor-side customer id, may be empty
	AmountCents      int64
	Currency         string
	SuccessURL       string
	CancelURL        string
	TTL              time.Duration
}

// CheckoutSession is the processor's response to opening a session.
type CheckoutSession struct {
	SessionID  string
	SessionURL string
	ExpiresAt  time.Time
}

// Processor abstracts the hosted-checkout payment provider. A single
// concrete implementation (Stripe) backs it in production; mockprocessor
// backs it in tests.
type Processor interface {
	// CreateCustomer creates a processor-side customer record for
	// userID/email, returning its id. Called once per user on first
	// purchase; the id is cached on the User row thereafter.
	CreateCustomer(ctx context.Context, userID, email string) (string, error)

	// CreateCheckoutSession opens a hosted-checkout session.
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)

	// RetrieveCheckoutSession re-fetches a previously created session,
	// used when a caller retries with an idempotency key that already
	// has an order.
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// VerifyWebhookSignature validates the raw body against the
	// signature header and returns the parsed event on success.
	VerifyWebhookSignature(payload []byte, signatureHeader string) (*Event, error)
}
