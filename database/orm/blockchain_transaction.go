package orm

import "time"

// TransactionStatus mirrors the network state of a blockchain
// submission as reported by a provider adapter.
type TransactionStatus int32

const (
	TransactionStatusUnknown TransactionStatus = iota
	TransactionStatusPending
	TransactionStatusSubmitted
	TransactionStatusConfirming
	TransactionStatusConfirmed
	TransactionStatusFailed
	TransactionStatusRetrying
)

var txStatusName = map[TransactionStatus]string{
	TransactionStatusPending:    "PENDING",
	TransactionStatusSubmitted:  "SUBMITTED",
	TransactionStatusConfirming: "CONFIRMING",
	TransactionStatusConfirmed:  "CONFIRMED",
	TransactionStatusFailed:     "FAILED",
	TransactionStatusRetrying:   "RETRYING",
}

var txStatusValue = map[string]TransactionStatus{
	"PENDING":    TransactionStatusPending,
	"SUBMITTED":  TransactionStatusSubmitted,
	"CONFIRMING": TransactionStatusConfirming,
	"CONFIRMED":  TransactionStatusConfirmed,
	"FAILED":     TransactionStatusFailed,
	"RETRYING":   TransactionStatusRetrying,
}

func (s TransactionStatus) String() string {
	if v, ok := txStatusName[s]; ok {
		return v
	}

	return "UNKNOWN"
}

// TransactionStatusFromString parses an adapter-reported status string.
func TransactionStatusFromString(str string) TransactionStatus {
	return txStatusValue[str]
}

// IsTerminal reports whether the poller/sweep should stop watching this
// transaction.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusConfirmed || s == TransactionStatusFailed
}

// DefaultMaxRetries is the operator retry budget (P7).
const DefaultMaxRetries = 3

// BlockchainTransaction is a gorm table definition represents the
// blockchain_transactions. At most one non-FAILED row exists per order
// at any time (P3), enforced by Orchestrator.Dispatch's live-transaction
// check, not a DB constraint, since FAILED rows must remain to preserve
// retry history.
type BlockchainTransaction struct {
	ID            string `gorm:"primary_key"`
	OrderID       string `gorm:"index"`
	ProviderID    string `gorm:"index"`
	Network       NetworkType
	ChainID       uint64
	TxHash        *string `gorm:"column:tx_hash;index"`
	Status        TransactionStatus `gorm:"index"`
	Confirmations uint64
	RetryCount    uint32
	MaxRetries    uint32
	LastRetryAt   *time.Time
	BlockNumber   uint64
	BlockHash     string
	GasUsed       uint64
	StatusMessage string
	RawResponse   string
	SubmittedAt   *time.Time
	ConfirmedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName change default table name
func (BlockchainTransaction) TableName() string {
	return "blockchain_transactions"
}

// CanRetry reports whether an operator retry is still within budget
// (P7: retry bound).
func (t *BlockchainTransaction) CanRetry() bool {
	return t.Status == TransactionStatusFailed && t.RetryCount < t.MaxRetries
}
