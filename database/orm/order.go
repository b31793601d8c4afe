package orm

import "time"

// OrderStatus is the order lifecycle state, per the DAG enumerated in
// orderTransitions below.
type OrderStatus int32

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusPendingPayment
	OrderStatusPaymentProcessing
	OrderStatusPaymentCompleted
	OrderStatusPaymentFailed
	OrderStatusCancelled
	OrderStatusBlockchainPending
	OrderStatusBlockchainProcessing
	OrderStatusBlockchainFailed
	OrderStatusCompleted
	OrderStatusRefunded
)

var orderStatusName = map[OrderStatus]string{
	OrderStatusPendingPayment:       "PENDING_PAYMENT",
	OrderStatusPaymentProcessing:    "PAYMENT_PROCESSING",
	OrderStatusPaymentCompleted:     "PAYMENT_COMPLETED",
	OrderStatusPaymentFailed:        "PAYMENT_FAILED",
	OrderStatusCancelled:            "CANCELLED",
	OrderStatusBlockchainPending:    "BLOCKCHAIN_PENDING",
	OrderStatusBlockchainProcessing: "BLOCKCHAIN_PROCESSING",
	OrderStatusBlockchainFailed:     "BLOCKCHAIN_FAILED",
	OrderStatusCompleted:            "COMPLETED",
	OrderStatusRefunded:             "REFUNDED",
}

func (s OrderStatus) String() string {
	if v, ok := orderStatusName[s]; ok {
		return v
	}

	return "UNKNOWN"
}

// terminal order states that can never advance further on their own.
var orderTerminal = map[OrderStatus]bool{
	OrderStatusCompleted:        true,
	OrderStatusRefunded:         true,
	OrderStatusCancelled:        true,
	OrderStatusPaymentFailed:    true,
	OrderStatusBlockchainFailed: true,
}

// IsTerminal reports whether the order can no longer transition without
// an explicit operator action (retry, refund).
func (s OrderStatus) IsTerminal() bool {
	return orderTerminal[s]
}

// orderTransitions enumerates the permitted forward edges of the order
// state DAG. A transition not present here must be rejected by the
// store layer with INVALID_ORDER_STATUS.
var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPendingPayment: {
		OrderStatusPaymentProcessing: true,
		OrderStatusCancelled:         true,
		OrderStatusPaymentCompleted:  true,
		// payment_intent.payment_failed can arrive before any
		// PAYMENT_PROCESSING transition is ever recorded, since that
		// state is only reachable through a processor flow this system
		// does not model at finer granularity than webhook events.
		OrderStatusPaymentFailed: true,
	},
	OrderStatusPaymentProcessing: {
		OrderStatusPaymentCompleted: true,
		OrderStatusPaymentFailed:    true,
	},
	OrderStatusPaymentCompleted: {
		OrderStatusBlockchainPending: true,
	},
	OrderStatusBlockchainPending: {
		OrderStatusBlockchainProcessing: true,
	},
	// A confirmed BlockchainTransaction (transaction-level status,
	// tracked separately on BlockchainTransaction.Status) completes the
	// order directly; there is no distinct order-level "confirmed but
	// not yet completed" state to pass through.
	OrderStatusBlockchainProcessing: {
		OrderStatusCompleted:        true,
		OrderStatusBlockchainFailed: true,
	},
	// An operator retry resubmits the existing failed transaction
	// directly rather than routing back through Dispatch's
	// create-a-new-row path; RetryTransaction is the only caller of
	// this edge.
	OrderStatusBlockchainFailed: {
		OrderStatusBlockchainProcessing: true,
	},
	OrderStatusCompleted: {
		OrderStatusRefunded: true,
	},
}

// CanTransition reports whether moving from s to next is a legal edge
// of the order state DAG (P4: state monotonicity).
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return orderTransitions[s][next]
}

// Order is a gorm table definition represents the orders. Size,
// duration and price fields are snapshotted from the plan at creation
// time and never re-derived (P1: snapshot immutability).
type Order struct {
	ID              string `gorm:"primary_key"`
	OrderNumber     string `gorm:"uniqueIndex"`
	UserID          string `gorm:"index"`
	ProviderID      string `gorm:"index"`
	PlanID          string `gorm:"index"`
	SizeGB          uint64
	SizeBytes       uint64
	DurationDays    uint32
	PriceCents      int64
	Status          OrderStatus `gorm:"index"`
	StatusMessage   string
	IdempotencyKey  *string `gorm:"column:idempotency_key;uniqueIndex"`
	StorageID       string
	StorageEndpoint string
	StorageMetadata string
	PaidAt          *time.Time
	AllocatedAt     *time.Time
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Payments               []*Payment              `gorm:"foreignkey:OrderID;constraint:OnDelete:CASCADE"`
	BlockchainTransactions []*BlockchainTransaction `gorm:"foreignkey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName change default table name
func (Order) TableName() string {
	return "orders"
}
