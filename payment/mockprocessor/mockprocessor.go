// Package mockprocessor is an in-memory payment.Processor double for
// tests, mirroring the shape of a real hosted-checkout processor
// without any network calls.
package mockprocessor

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/payment"
)

// Mock is a payment.Processor test double. Signature verification uses
// a fixed shared secret rather than any real processor's scheme.
type Mock struct {
	mu       sync.Mutex
	Secret   string
	sessions map[string]*payment.CheckoutSession
	meta     map[string]sessionMeta
}

type sessionMeta struct {
	orderID   string
	paymentID string
}

// New returns a Mock processor.
func New() *Mock {
	return &Mock{
		Secret:   "test-secret",
		sessions: map[string]*payment.CheckoutSession{},
		meta:     map[string]sessionMeta{},
	}
}

func (m *Mock) CreateCustomer(_ context.Context, userID, _ string) (string, error) {
	return "cus_" + userID, nil
}

func (m *Mock) CreateCheckoutSession(_ context.Context, req payment.CheckoutSessionRequest) (*payment.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := "cs_" + uuid.NewString()
	sess := &payment.CheckoutSession{
		SessionID:  id,
		SessionURL: "https://mock.vaultmesh.test/checkout/" + id,
		ExpiresAt:  time.Now().Add(req.TTL),
	}
	m.sessions[id] = sess
	m.meta[id] = sessionMeta{orderID: req.OrderID, paymentID: req.PaymentID}

	return sess, nil
}

func (m *Mock) RetrieveCheckoutSession(_ context.Context, sessionID string) (*payment.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "session not found")
	}

	return sess, nil
}

// EmitSessionCompleted builds a checkout.session.completed event body
// and signs it, for use as test input to Webhook.Handle.
func (m *Mock) EmitSessionCompleted(sessionID string) ([]byte, string) {
	m.mu.Lock()
	meta := m.meta[sessionID]
	m.mu.Unlock()

	return m.sign(rawEvent{
		ID:   "evt_" + uuid.NewString(),
		Type: string(payment.EventCheckoutSessionCompleted),
		Object: rawObject{
			SessionID:       sessionID,
			PaymentIntentID: "pi_" + uuid.NewString(),
			OrderID:         meta.orderID,
			PaymentID:       meta.paymentID,
		},
	})
}

// EmitSessionExpired builds a checkout.session.expired event body.
func (m *Mock) EmitSessionExpired(sessionID string) ([]byte, string) {
	return m.sign(rawEvent{
		ID:     "evt_" + uuid.NewString(),
		Type:   string(payment.EventCheckoutSessionExpired),
		Object: rawObject{SessionID: sessionID},
	})
}

// EmitPaymentIntentFailed builds a payment_intent.payment_failed event
// body.
func (m *Mock) EmitPaymentIntentFailed(intentID, lastError string) ([]byte, string) {
	return m.sign(rawEvent{
		ID:   "evt_" + uuid.NewString(),
		Type: string(payment.EventPaymentIntentFailed),
		Object: rawObject{
			PaymentIntentID: intentID,
			LastError:       lastError,
		},
	})
}

type rawObject struct {
	SessionID       string `json:"session_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	OrderID         string `json:"order_id"`
	PaymentID       string `json:"payment_id"`
	LastError       string `json:"last_error"`
}

type rawEvent struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Object rawObject `json:"object"`
}

func (m *Mock) sign(e rawEvent) ([]byte, string) {
	body, _ := json.Marshal(e)
	mac := hmac.New(sha256.New, []byte(m.Secret))
	mac.Write(body)
	return body, hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature validates payload against the HMAC-SHA256 of
// the shared secret and decodes it into a payment.Event.
func (m *Mock) VerifyWebhookSignature(payload []byte, signatureHeader string) (*payment.Event, error) {
	mac := hmac.New(sha256.New, []byte(m.Secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return nil, fmt.Errorf("mockprocessor: signature mismatch")
	}

	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	return &payment.Event{
		ID:   raw.ID,
		Type: payment.EventType(raw.Type),
		Object: payment.EventObject{
			SessionID:       raw.Object.SessionID,
			PaymentIntentID: raw.Object.PaymentIntentID,
			OrderID:         raw.Object.OrderID,
			PaymentID:       raw.Object.PaymentID,
			LastError:       raw.Object.LastError,
		},
	}, nil
}

var _ payment.Processor = (*Mock)(nil)
