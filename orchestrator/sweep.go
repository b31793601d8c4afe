package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
)

// SweepInterval is how often the periodic recovery sweep runs.
const SweepInterval = 60 * time.Second

const awaitingAllocationBatchSize = 50
const inFlightTransactionBatchSize = 200

// Sweep is the periodic recovery job of SPEC_FULL.md §4.6: it re-runs
// checkTransactionStatus against every SUBMITTED or CONFIRMING
// BlockchainTransaction (recovering a poller killed by a process
// restart) and re-dispatches any PAYMENT_COMPLETED order that has no
// non-FAILED BlockchainTransaction (recovering a crash between webhook
// receipt and orchestrator scheduling). Grounded on the teacher's
// ticker-driven EventProcessor.Run (synchorn/sync.go).
type Sweep struct {
	Store        store.Store
	Orchestrator *Orchestrator
}

// NewSweep returns a Sweep.
func NewSweep(st store.Store, o *Orchestrator) *Sweep {
	return &Sweep{Store: st, Orchestrator: o}
}

// Run blocks, ticking every SweepInterval until ctx is cancelled.
func (s *Sweep) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweep) tick(ctx context.Context) {
	s.sweepInFlightTransactions(ctx)
	s.sweepUnallocatedOrders(ctx)
}

func (s *Sweep) sweepInFlightTransactions(ctx context.Context) {
	txns, err := s.Store.ListTransactionsByStatus(ctx,
		[]orm.TransactionStatus{orm.TransactionStatusSubmitted, orm.TransactionStatusConfirming},
		inFlightTransactionBatchSize,
	)
	if err != nil {
		logrus.WithError(err).Error("sweep: failed to list in-flight transactions")
		return
	}

	for _, txn := range txns {
		if txn.TxHash == nil {
			continue
		}

		order, err := s.Store.GetOrder(ctx, txn.OrderID)
		if err != nil {
			logrus.WithError(err).WithField("transaction_id", txn.ID).Warn("sweep: failed to load order for transaction")
			continue
		}

		slug, err := resolveProviderSlug(ctx, s.Store, order)
		if err != nil {
			logrus.WithError(err).WithField("transaction_id", txn.ID).Warn("sweep: failed to resolve provider for transaction")
			continue
		}

		adapter, err := s.Orchestrator.Registry.Get(slug)
		if err != nil {
			logrus.WithError(err).WithField("transaction_id", txn.ID).Warn("sweep: no adapter for transaction's provider")
			continue
		}

		result, err := adapter.CheckTransactionStatus(ctx, *txn.TxHash)
		if err != nil || (result != nil && result.Err != nil) {
			logrus.WithError(err).WithField("transaction_id", txn.ID).Warn("sweep: status check failed, will retry next tick")
			continue
		}

		if _, err := applyStatus(ctx, s.Store, txn, order, result); err != nil {
			logrus.WithError(err).WithField("transaction_id", txn.ID).Warn("sweep: failed to apply transaction status")
		}
	}
}

func (s *Sweep) sweepUnallocatedOrders(ctx context.Context) {
	orders, err := s.Store.ListOrdersAwaitingAllocation(ctx, awaitingAllocationBatchSize)
	if err != nil {
		logrus.WithError(err).Error("sweep: failed to list orders awaiting allocation")
		return
	}

	for _, order := range orders {
		if _, err := s.Orchestrator.Dispatch(ctx, order.ID); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("sweep: re-dispatch failed")
		}
	}
}
