// Package store defines the transactional persistence contract used by
// the checkout initiator, webhook ingestor and allocation orchestrator.
// It is expressed as an interface — rather than the teacher's direct
// *gorm.DB injection — because the spec's exactly-once and
// state-monotonicity invariants (P1-P7) need to be exercised in tests
// without a live MySQL instance. The GORM-backed implementation lives
// in gormstore.go and is otherwise a thin wrapper matching the
// teacher's database/mysql style.
package store

import (
	"context"
	"fmt"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/database/orm"
)

// ErrNotFound is returned by lookups that find no matching row.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

// ErrConflict is returned when a unique-constraint write collides with
// an existing row.
var ErrConflict = errConflict{}

type errConflict struct{}

func (errConflict) Error() string { return "conflict" }

// ErrInvalidOrderStatus builds the guard-failure error returned when a
// state-predicated update finds the row in an unexpected status.
func ErrInvalidOrderStatus(actual, expected orm.OrderStatus) error {
	return apperrors.New(
		apperrors.KindInvalidOrderStatus,
		fmt.Sprintf("order is in status %s, expected %s", actual, expected),
	)
}

// ErrIllegalOrderTransition is returned when a status update targets a
// `next` the order state DAG does not permit from `from`, even though
// the row is currently in that `from` status (P4: state monotonicity).
func ErrIllegalOrderTransition(from, next orm.OrderStatus) error {
	return apperrors.New(
		apperrors.KindInvalidOrderStatus,
		fmt.Sprintf("order transition %s -> %s is not permitted", from, next),
	)
}

// Store is the transactional persistence contract. Every method that
// mutates rows is safe to call concurrently; ordering across orders is
// not guaranteed, but ordering within a single order is enforced by the
// state-guarded Update methods.
type Store interface {
	// Transaction runs fn against a Store scoped to a single
	// serializable transaction. A non-nil return rolls back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Users
	GetUser(ctx context.Context, id string) (*orm.User, error)
	GetUserByEmail(ctx context.Context, email string) (*orm.User, error)
	SetUserProcessorCustomer(ctx context.Context, userID, customerID string) error

	// Providers
	GetProvider(ctx context.Context, id string) (*orm.Provider, error)
	GetProviderBySlug(ctx context.Context, slug string) (*orm.Provider, error)
	ListProviders(ctx context.Context) ([]*orm.Provider, error)

	// Plans
	GetPlan(ctx context.Context, id string) (*orm.StoragePlan, error)
	GetPlanByExternalID(ctx context.Context, providerID, externalPlanID string) (*orm.StoragePlan, error)
	ListPlansByProvider(ctx context.Context, providerID string) ([]*orm.StoragePlan, error)
	UpsertPlan(ctx context.Context, plan *orm.StoragePlan) error
	MarkPlansUnavailable(ctx context.Context, providerID string, keepExternalIDs []string) (int64, error)

	// Orders
	CreateOrder(ctx context.Context, order *orm.Order) error
	GetOrder(ctx context.Context, id string) (*orm.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*orm.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*orm.Order, error)
	// UpdateOrderStatus atomically moves an order from a specific
	// expected status to next, applying mutate to the row first. It
	// returns apperrors KindInvalidOrderStatus if the row is not
	// currently in from.
	UpdateOrderStatus(ctx context.Context, id string, from, next orm.OrderStatus, mutate func(*orm.Order)) error
	UpdateOrder(ctx context.Context, order *orm.Order) error
	// ListOrdersAwaitingAllocation returns orders in PAYMENT_COMPLETED
	// with no non-FAILED blockchain transaction: the sweep's dispatch
	// backlog.
	ListOrdersAwaitingAllocation(ctx context.Context, limit int) ([]*orm.Order, error)

	// Payments
	CreatePayment(ctx context.Context, p *orm.Payment) error
	GetPayment(ctx context.Context, id string) (*orm.Payment, error)
	GetLivePaymentByOrderID(ctx context.Context, orderID string) (*orm.Payment, error)
	GetPaymentBySessionID(ctx context.Context, sessionID string) (*orm.Payment, error)
	GetPaymentByIntentID(ctx context.Context, intentID string) (*orm.Payment, error)
	UpdatePayment(ctx context.Context, p *orm.Payment) error

	// Blockchain transactions
	CreateBlockchainTransaction(ctx context.Context, t *orm.BlockchainTransaction) error
	GetBlockchainTransaction(ctx context.Context, id string) (*orm.BlockchainTransaction, error)
	GetLiveTransactionByOrderID(ctx context.Context, orderID string) (*orm.BlockchainTransaction, error)
	UpdateBlockchainTransaction(ctx context.Context, t *orm.BlockchainTransaction) error
	ListTransactionsByStatus(ctx context.Context, statuses []orm.TransactionStatus, limit int) ([]*orm.BlockchainTransaction, error)

	// Provider sync bookkeeping
	CreateProviderSyncLog(ctx context.Context, l *orm.ProviderSyncLog) error
	FinishProviderSyncLog(ctx context.Context, l *orm.ProviderSyncLog) error

	// GetSystemConfig reads a runtime-tunable operator setting (e.g.
	// the plan-sync interval override, the maintenance-mode flag),
	// read once at worker startup. Returns ErrNotFound if the key has
	// no row, which callers treat as "use the compiled-in default".
	GetSystemConfig(ctx context.Context, key string) (*orm.SystemConfig, error)
}
