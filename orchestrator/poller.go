package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
	"github.com/vaultmesh/checkout/provider"
)

const (
	pollInterval    = 10 * time.Second
	pollMaxAttempts = 30
)

// Poller runs one ticker-driven confirmation loop per
// BlockchainTransaction, per SPEC_FULL.md §4.6, grounded on the
// teacher's ticker-based EventProcessor.Run pattern
// (indexer/eventprocessor.go, sync/sync.go). Started detached from
// Orchestrator.Dispatch; each Start call runs on its own goroutine and
// exits on its own once the transaction reaches a terminal state or
// pollMaxAttempts is exhausted.
type Poller struct {
	Store    store.Store
	Registry *provider.Registry
}

// NewPoller returns a Poller.
func NewPoller(st store.Store, reg *provider.Registry) *Poller {
	return &Poller{Store: st, Registry: reg}
}

// Start launches the polling loop for txID in a new goroutine.
func (p *Poller) Start(txID string) {
	go p.run(context.Background(), txID)
}

func (p *Poller) run(ctx context.Context, txID string) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log := logrus.WithField("transaction_id", txID)

	for attempt := 0; attempt < pollMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		done, err := p.pollOnce(ctx, txID)
		if err != nil {
			log.WithError(err).Warn("transient error polling transaction status, will retry")
			continue
		}
		if done {
			return
		}
	}

	log.Warn("confirmation polling exhausted attempts, leaving transaction for sweep")
}

// pollOnce runs a single iteration of the loop body described in
// SPEC_FULL.md §4.6 and reports whether the transaction reached a
// terminal state.
func (p *Poller) pollOnce(ctx context.Context, txID string) (bool, error) {
	txn, err := p.Store.GetBlockchainTransaction(ctx, txID)
	if err != nil {
		return true, err
	}
	if txn.Status.IsTerminal() {
		return true, nil
	}
	if txn.TxHash == nil {
		return false, nil
	}

	order, err := p.Store.GetOrder(ctx, txn.OrderID)
	if err != nil {
		return true, err
	}

	slug, err := resolveProviderSlug(ctx, p.Store, order)
	if err != nil {
		return false, err
	}

	adapter, err := p.Registry.Get(slug)
	if err != nil {
		return false, err
	}

	result, err := adapter.CheckTransactionStatus(ctx, *txn.TxHash)
	if err != nil {
		return false, err
	}
	if result.Err != nil {
		return false, result.Err
	}

	return applyStatus(ctx, p.Store, txn, order, result)
}

// applyStatus updates the transaction and, if it reached a terminal
// state, the order, per the CONFIRMED/FAILED branches of §4.6. Shared
// between Poller and Sweep.
func applyStatus(
	ctx context.Context,
	st store.Store,
	txn *orm.BlockchainTransaction,
	order *orm.Order,
	result *provider.StatusResult,
) (bool, error) {
	now := time.Now().UTC()

	txn.Status = result.Status
	txn.Confirmations = result.Confirmations
	txn.BlockNumber = result.BlockNumber
	txn.BlockHash = result.BlockHash
	txn.GasUsed = result.GasUsed
	txn.StatusMessage = result.StatusMessage
	if result.Status == orm.TransactionStatusConfirmed {
		txn.ConfirmedAt = &now
	}
	if err := st.UpdateBlockchainTransaction(ctx, txn); err != nil {
		return false, err
	}

	switch result.Status {
	case orm.TransactionStatusConfirmed:
		expiresAt := now.AddDate(0, 0, int(order.DurationDays))
		return true, st.UpdateOrderStatus(ctx, order.ID, orm.OrderStatusBlockchainProcessing, orm.OrderStatusCompleted, func(o *orm.Order) {
			o.AllocatedAt = &now
			o.ExpiresAt = &expiresAt
		})
	case orm.TransactionStatusFailed:
		return true, st.UpdateOrderStatus(ctx, order.ID, orm.OrderStatusBlockchainProcessing, orm.OrderStatusBlockchainFailed, func(o *orm.Order) {
			o.StatusMessage = result.StatusMessage
		})
	default:
		return false, nil
	}
}
