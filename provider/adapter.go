// Package provider defines the uniform capability set every storage
// backend (Filecoin, Greenfield, Storj, Lighthouse, Akash) implements,
// and a process-wide registry keyed by provider slug. Generalizes the
// teacher's single chain.NodeClient into a family of interchangeable
// adapters, per SPEC_FULL.md §4.1.
package provider

import (
	"context"

	"github.com/vaultmesh/checkout/database/orm"
)

// TxParams carries everything an adapter needs to submit an
// allocation. Adapters must be side-effect-idempotent with respect to
// OrderID: resubmitting the same params must not create a second
// allocation.
type TxParams struct {
	OrderID           string
	PlanID            string
	ExternalPlanID    string
	StorageSizeBytes  uint64
	DurationDays      uint32
	UserWalletAddress string
}

// TxResult is the outcome of ExecuteStorageTransaction.
type TxResult struct {
	Success bool
	Error   string

	TxHash string
	Status orm.TransactionStatus // PENDING or SUBMITTED on success

	FromAddress string
	ToAddress   string
	GasUsed     uint64
	Nonce       uint64

	StorageID       string
	StorageEndpoint string
	StorageMetadata string

	RawResponse string
}

// StatusResult is the outcome of CheckTransactionStatus.
type StatusResult struct {
	Status        orm.TransactionStatus
	Confirmations uint64
	BlockNumber   uint64
	BlockHash     string
	GasUsed       uint64
	StatusMessage string
	Err           error
}

// PlanInfo is one entry of an adapter's plan catalog.
type PlanInfo struct {
	ExternalPlanID string
	SizeGB         uint64
	SizeBytes      uint64
	DurationDays   uint32
	PriceCents     int64
	PriceNative    string
	Currency       string
}

// Adapter is the uniform capability set every provider backend
// implements.
type Adapter interface {
	// Slug is the stable registry key, e.g. "filecoin", "storj".
	Slug() string

	// Initialize prepares transport (RPC client, API key). Failure is
	// non-fatal: the registry flags the adapter degraded and continues.
	Initialize(ctx context.Context) error

	// IsAvailable is a cheap liveness probe. Must complete within a
	// few seconds or return false.
	IsAvailable(ctx context.Context) bool

	// GetAvailablePlans returns the adapter's plan catalog. Not on the
	// critical path; used by the sync job.
	GetAvailablePlans(ctx context.Context) ([]PlanInfo, error)

	// ExecuteStorageTransaction submits the allocation.
	ExecuteStorageTransaction(ctx context.Context, params TxParams) (*TxResult, error)

	// CheckTransactionStatus returns the current network status.
	CheckTransactionStatus(ctx context.Context, txHash string) (*StatusResult, error)

	// GetTransactionExplorerURL is a pure formatter.
	GetTransactionExplorerURL(txHash string) string
}
