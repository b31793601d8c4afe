package payment

// EventType names one payment-processor webhook event kind, per
// SPEC_FULL.md §4.4's event table.
type EventType string

const (
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
	EventCheckoutSessionExpired   EventType = "checkout.session.expired"
	EventPaymentIntentSucceeded   EventType = "payment_intent.succeeded"
	EventPaymentIntentFailed      EventType = "payment_intent.payment_failed"
)

// Event is a processor webhook event, already signature-verified and
// decoded into the fields the ingestor needs. Any event type not
// listed above is decoded with Type set and Object left largely empty;
// the ingestor logs and ignores it.
type Event struct {
	ID     string
	Type   EventType
	Object EventObject
}

// EventObject is the normalized `data.object` payload common across
// the four handled event types. Processors differ on the wire, but
// these are the fields every handler in webhook.go needs.
type EventObject struct {
	SessionID       string
	PaymentIntentID string
	OrderID         string // from session/intent metadata
	PaymentID       string // from session/intent metadata
	LastError       string
}
