package stripeprocessor

import (
	"encoding/json"

	"github.com/vaultmesh/checkout/payment"
)

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
	Metadata      struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
	} `json:"metadata"`
}

type paymentIntentObject struct {
	ID           string `json:"id"`
	LastPaymentError struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func decodeStripeEvent(payload []byte) (*payment.Event, error) {
	var raw stripeEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	event := &payment.Event{ID: raw.ID, Type: payment.EventType(raw.Type)}

	switch event.Type {
	case payment.EventCheckoutSessionCompleted, payment.EventCheckoutSessionExpired:
		var obj checkoutSessionObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, err
		}
		event.Object = payment.EventObject{
			SessionID:       obj.ID,
			PaymentIntentID: obj.PaymentIntent,
			OrderID:         obj.Metadata.OrderID,
			PaymentID:       obj.Metadata.PaymentID,
		}
	case payment.EventPaymentIntentSucceeded, payment.EventPaymentIntentFailed:
		var obj paymentIntentObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, err
		}
		event.Object = payment.EventObject{
			PaymentIntentID: obj.ID,
			LastError:       obj.LastPaymentError.Message,
		}
	}

	return event, nil
}
