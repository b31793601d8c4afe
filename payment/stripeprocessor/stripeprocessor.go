// Package stripeprocessor implements payment.Processor against the
// Stripe Checkout Sessions REST API. No Stripe SDK appears anywhere in
// the reference corpus, so this is built on the same bounded-timeout
// HTTP client shape used by the API-style provider adapters
// (provider/apiadapter.Client) rather than a fabricated dependency.
package stripeprocessor

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/payment"
	"github.com/vaultmesh/checkout/provider/apiadapter"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// Config configures a Processor.
type Config struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string // overridable for tests
}

// Processor is a Stripe-backed payment.Processor.
type Processor struct {
	cfg    Config
	client *apiadapter.Client
}

// New returns a Stripe Processor.
func New(cfg Config) *Processor {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Processor{
		cfg:    cfg,
		client: apiadapter.NewClient(base, cfg.SecretKey),
	}
}

type customerResp struct {
	ID string `json:"id"`
}

func (p *Processor) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	form := url.Values{"email": {email}, "metadata[user_id]": {userID}}
	var resp customerResp
	if err := p.client.PostJSON(ctx, "customers?"+form.Encode(), nil, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

type sessionResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (p *Processor) CreateCheckoutSession(ctx context.Context, req payment.CheckoutSessionRequest) (*payment.CheckoutSession, error) {
	expires := time.Now().Add(req.TTL)
	form := url.Values{
		"mode":                 {"payment"},
		"success_url":          {req.SuccessURL},
		"cancel_url":           {req.CancelURL},
		"expires_at":           {strconv.FormatInt(expires.Unix(), 10)},
		"metadata[order_id]":   {req.OrderID},
		"metadata[payment_id]": {req.PaymentID},
		"metadata[user_id]":    {req.UserID},
		"metadata[plan_id]":    {req.PlanID},
		"line_items[0][price_data][currency]":            {strings.ToLower(req.Currency)},
		"line_items[0][price_data][unit_amount]":          {strconv.FormatInt(req.AmountCents, 10)},
		"line_items[0][price_data][product_data][name]":   {"VaultMesh storage plan " + req.PlanID},
		"line_items[0][quantity]":                         {"1"},
	}
	if req.CustomerID != "" {
		form.Set("customer", req.CustomerID)
	}

	var resp sessionResp
	if err := p.client.PostJSON(ctx, "checkout/sessions?"+form.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	return &payment.CheckoutSession{SessionID: resp.ID, SessionURL: resp.URL, ExpiresAt: expires}, nil
}

func (p *Processor) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	var resp sessionResp
	if err := p.client.Get(ctx, "checkout/sessions/"+sessionID, &resp); err != nil {
		return nil, err
	}
	return &payment.CheckoutSession{SessionID: resp.ID, SessionURL: resp.URL}, nil
}

// VerifyWebhookSignature validates the Stripe-Signature header, which
// carries `t=<unix ts>,v1=<hex hmac>` over "<ts>.<payload>".
func (p *Processor) VerifyWebhookSignature(payload []byte, signatureHeader string) (*payment.Event, error) {
	ts, sig, err := parseStripeSignature(signatureHeader)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, []byte(p.cfg.WebhookSecret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return nil, apperrors.New(apperrors.KindInvalidSignature, "stripe signature mismatch")
	}

	return decodeStripeEvent(payload)
}

func parseStripeSignature(header string) (ts, v1 string, err error) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if ts == "" || v1 == "" {
		return "", "", fmt.Errorf("stripeprocessor: malformed signature header")
	}
	return ts, v1, nil
}

var _ payment.Processor = (*Processor)(nil)
