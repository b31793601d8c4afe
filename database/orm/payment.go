package orm

import "time"

// PaymentStatus mirrors the lifecycle of a hosted-checkout payment.
type PaymentStatus int32

const (
	PaymentStatusUnknown PaymentStatus = iota
	PaymentStatusPending
	PaymentStatusProcessing
	PaymentStatusSucceeded
	PaymentStatusFailed
	PaymentStatusCancelled
)

var paymentStatusName = map[PaymentStatus]string{
	PaymentStatusPending:    "PENDING",
	PaymentStatusProcessing: "PROCESSING",
	PaymentStatusSucceeded:  "SUCCEEDED",
	PaymentStatusFailed:     "FAILED",
	PaymentStatusCancelled:  "CANCELLED",
}

func (s PaymentStatus) String() string {
	if v, ok := paymentStatusName[s]; ok {
		return v
	}

	return "UNKNOWN"
}

// IsLive reports whether the payment still counts against P2's
// single-live-payment invariant.
func (s PaymentStatus) IsLive() bool {
	return s == PaymentStatusPending ||
		s == PaymentStatusProcessing ||
		s == PaymentStatusSucceeded
}

// Payment is a gorm table definition represents the payments.
type Payment struct {
	ID                       string `gorm:"primary_key"`
	OrderID                  string `gorm:"index"`
	UserID                   string `gorm:"index"`
	AmountCents              int64
	Currency                 string
	ProcessorPaymentIntentID *string `gorm:"column:processor_payment_intent_id;uniqueIndex"`
	ProcessorSessionID       *string `gorm:"column:processor_session_id;uniqueIndex"`
	Status                   PaymentStatus `gorm:"index"`
	IdempotencyKey           *string       `gorm:"column:idempotency_key;uniqueIndex"`
	LastError                string
	ProcessedAt              *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// TableName change default table name
func (Payment) TableName() string {
	return "payments"
}
