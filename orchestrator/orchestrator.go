// Package orchestrator implements the Allocation Orchestrator and its
// two recovery workers (the per-transaction Confirmation Poller and
// the periodic sweep), grounded on the teacher's ticker-driven
// indexer/eventprocessor.go and synchorn/sync.go workers.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
	"github.com/vaultmesh/checkout/provider"
)

// DefaultMaxRetries mirrors orm.DefaultMaxRetries; kept local so
// callers configuring the orchestrator don't need to import orm just
// for this constant.
const DefaultMaxRetries = orm.DefaultMaxRetries

// Orchestrator dispatches paid orders to their provider adapter and
// arranges confirmation polling, per SPEC_FULL.md §4.5.
type Orchestrator struct {
	Store    store.Store
	Registry *provider.Registry
	Poller   *Poller
}

// New returns an Orchestrator. poller may be nil if the caller does
// not want Dispatch to auto-start polling (e.g. in tests that assert
// on store state only).
func New(st store.Store, reg *provider.Registry, poller *Poller) *Orchestrator {
	return &Orchestrator{Store: st, Registry: reg, Poller: poller}
}

// Schedule implements payment.AllocationScheduler: it dispatches the
// order on its own goroutine, fire-and-forget, logging any failure.
// This is the seam that breaks the payment/orchestrator import cycle.
func (o *Orchestrator) Schedule(orderID string) {
	go func() {
		ctx := context.Background()
		if _, err := o.Dispatch(ctx, orderID); err != nil {
			logrus.WithError(err).WithField("order_id", orderID).
				Error("scheduled allocation dispatch failed")
		}
	}()
}

// Dispatch implements the algorithm of SPEC_FULL.md §4.5: it requires
// Order to be PAYMENT_COMPLETED, is a no-op idempotency seam if a
// non-FAILED BlockchainTransaction already exists, and otherwise walks
// the order through BLOCKCHAIN_PENDING -> BLOCKCHAIN_PROCESSING while
// calling the resolved adapter.
func (o *Orchestrator) Dispatch(ctx context.Context, orderID string) (*orm.BlockchainTransaction, error) {
	order, err := o.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orm.OrderStatusPaymentCompleted {
		return nil, apperrors.New(apperrors.KindInvalidOrderStatus,
			fmt.Sprintf("order %s is %s, expected PAYMENT_COMPLETED", orderID, order.Status))
	}

	if existing, err := o.Store.GetLiveTransactionByOrderID(ctx, orderID); err == nil {
		return existing, nil
	} else if err != store.ErrNotFound {
		return nil, err
	}

	if err := o.Store.UpdateOrderStatus(ctx, orderID, orm.OrderStatusPaymentCompleted, orm.OrderStatusBlockchainPending, nil); err != nil {
		return nil, err
	}

	txn := &orm.BlockchainTransaction{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		ProviderID: order.ProviderID,
		Status:     orm.TransactionStatusPending,
		MaxRetries: DefaultMaxRetries,
	}
	if err := o.Store.CreateBlockchainTransaction(ctx, txn); err != nil {
		return nil, err
	}

	if err := o.Store.UpdateOrderStatus(ctx, orderID, orm.OrderStatusBlockchainPending, orm.OrderStatusBlockchainProcessing, nil); err != nil {
		return nil, err
	}

	return o.submit(ctx, order, txn)
}

// submit resolves the adapter for order and calls
// ExecuteStorageTransaction, applying the result to txn and order.
// Shared by Dispatch (fresh transaction) and RetryTransaction
// (existing transaction, resubmitted after a prior failure).
func (o *Orchestrator) submit(ctx context.Context, order *orm.Order, txn *orm.BlockchainTransaction) (*orm.BlockchainTransaction, error) {
	slug, err := resolveProviderSlug(ctx, o.Store, order)
	if err != nil {
		return o.fail(ctx, order, txn, err.Error())
	}

	adapter, err := o.Registry.Get(slug)
	if err != nil {
		return o.fail(ctx, order, txn, err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"provider": adapter.Slug(),
		"size":     units.HumanSize(float64(order.SizeBytes)),
	}).Info("submitting storage allocation")

	result, err := adapter.ExecuteStorageTransaction(ctx, provider.TxParams{
		OrderID:          order.ID,
		PlanID:           order.PlanID,
		StorageSizeBytes: order.SizeBytes,
		DurationDays:     order.DurationDays,
	})
	if err != nil {
		return o.fail(ctx, order, txn, err.Error())
	}
	if !result.Success {
		return o.fail(ctx, order, txn, result.Error)
	}

	now := time.Now().UTC()
	txn.TxHash = strPtr(result.TxHash)
	txn.Status = result.Status
	txn.SubmittedAt = &now
	txn.GasUsed = result.GasUsed
	txn.RawResponse = result.RawResponse
	if err := o.Store.UpdateBlockchainTransaction(ctx, txn); err != nil {
		return nil, err
	}

	order.StorageID = result.StorageID
	order.StorageEndpoint = result.StorageEndpoint
	order.StorageMetadata = result.StorageMetadata
	if err := o.Store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}

	if o.Poller != nil {
		o.Poller.Start(txn.ID)
	}

	return txn, nil
}

// RetryTransaction implements the operator retry contract of
// SPEC_FULL.md §4.5: the transaction must be FAILED and below its
// retry ceiling.
func (o *Orchestrator) RetryTransaction(ctx context.Context, txID string) error {
	txn, err := o.Store.GetBlockchainTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if !txn.CanRetry() {
		return apperrors.New(apperrors.KindMaxRetries, "transaction is not retryable")
	}

	order, err := o.Store.GetOrder(ctx, txn.OrderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	txn.RetryCount++
	txn.LastRetryAt = &now
	txn.Status = orm.TransactionStatusRetrying
	txn.StatusMessage = ""
	if err := o.Store.UpdateBlockchainTransaction(ctx, txn); err != nil {
		return err
	}

	// Resubmits the same transaction row rather than routing back
	// through Dispatch, which would both create a second row and
	// short-circuit on this one via the live-transaction idempotency
	// check.
	if err := o.Store.UpdateOrderStatus(ctx, order.ID, orm.OrderStatusBlockchainFailed, orm.OrderStatusBlockchainProcessing, nil); err != nil {
		return err
	}

	_, err = o.submit(ctx, order, txn)
	return err
}

func (o *Orchestrator) fail(ctx context.Context, order *orm.Order, txn *orm.BlockchainTransaction, message string) (*orm.BlockchainTransaction, error) {
	err := o.Store.Transaction(ctx, func(tx store.Store) error {
		txn.Status = orm.TransactionStatusFailed
		txn.StatusMessage = message
		if err := tx.UpdateBlockchainTransaction(ctx, txn); err != nil {
			return err
		}

		return tx.UpdateOrderStatus(ctx, order.ID, orm.OrderStatusBlockchainProcessing, orm.OrderStatusBlockchainFailed, func(o *orm.Order) {
			o.StatusMessage = message
		})
	})

	return txn, err
}

// resolveProviderSlug looks up the registry key for an order's
// provider. Order.ProviderID is the Provider table's primary key, not
// its slug, so every adapter-resolution site must go through the
// Providers table before calling Registry.Get/GetOrNone.
func resolveProviderSlug(ctx context.Context, st store.Store, order *orm.Order) (string, error) {
	p, err := st.GetProvider(ctx, order.ProviderID)
	if err != nil {
		return "", err
	}
	return p.Slug, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
