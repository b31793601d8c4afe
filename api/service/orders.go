package service

import (
	"github.com/docker/go-units"
	"github.com/gin-gonic/gin"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
)

type orderResp struct {
	ID              string  `json:"id"`
	OrderNumber     string  `json:"orderNumber"`
	Status          string  `json:"status"`
	StatusMessage   string  `json:"statusMessage,omitempty"`
	SizeBytes       uint64  `json:"sizeBytes"`
	SizeHuman       string  `json:"sizeHuman"`
	PriceCents      int64   `json:"priceCents"`
	StorageID       string  `json:"storageId,omitempty"`
	StorageEndpoint string  `json:"storageEndpoint,omitempty"`
	Payment         *paymentSummary      `json:"payment,omitempty"`
	Transaction     *transactionSummary  `json:"transaction,omitempty"`
}

type paymentSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type transactionSummary struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	TxHash       string `json:"txHash,omitempty"`
	ExplorerURL  string `json:"explorerUrl,omitempty"`
}

// GetOrder returns an order with its live payment (PENDING, PROCESSING
// or SUCCEEDED) and its non-FAILED blockchain transaction, for
// SPEC_FULL.md §6's `GET /orders/{id}`. A CANCELLED or FAILED payment
// and a FAILED transaction are not included in the response.
func (s *Service) GetOrder(c *gin.Context) (*orderResp, error) {
	id := c.Param("id")
	order, err := s.Store.GetOrder(c.Request.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.New(apperrors.KindNotFound, "order not found")
		}
		return nil, err
	}

	resp := &orderResp{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		StatusMessage:   order.StatusMessage,
		SizeBytes:       order.SizeBytes,
		SizeHuman:       units.HumanSize(float64(order.SizeBytes)),
		PriceCents:      order.PriceCents,
		StorageID:       order.StorageID,
		StorageEndpoint: order.StorageEndpoint,
	}

	if pay, err := s.Store.GetLivePaymentByOrderID(c.Request.Context(), order.ID); err == nil {
		resp.Payment = &paymentSummary{ID: pay.ID, Status: pay.Status.String()}
	} else if err != store.ErrNotFound {
		return nil, err
	}

	if txn, err := s.Store.GetLiveTransactionByOrderID(c.Request.Context(), order.ID); err == nil {
		summary := &transactionSummary{ID: txn.ID, Status: txn.Status.String()}
		if txn.TxHash != nil {
			summary.TxHash = *txn.TxHash
			if p, err := s.Store.GetProvider(c.Request.Context(), order.ProviderID); err == nil {
				if adapter := s.Registry.GetOrNone(p.Slug); adapter != nil {
					summary.ExplorerURL = adapter.GetTransactionExplorerURL(*txn.TxHash)
				}
			}
		}
		resp.Transaction = summary
	} else if err != store.ErrNotFound {
		return nil, err
	}

	return resp, nil
}

// CancelOrder cancels an order still in PENDING_PAYMENT, per
// SPEC_FULL.md §6's `POST /orders/{id}/cancel`. The order's live
// payment is cancelled in the same transaction so a late
// checkout.session.completed for this order lands on a payment
// already out of PENDING and leaves it CANCELLED rather than stuck.
func (s *Service) CancelOrder(c *gin.Context) error {
	ctx := c.Request.Context()
	id := c.Param("id")

	return s.Store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.UpdateOrderStatus(ctx, id, orm.OrderStatusPendingPayment, orm.OrderStatusCancelled, func(o *orm.Order) {
			o.StatusMessage = "Cancelled by buyer"
		}); err != nil {
			return err
		}

		pay, err := tx.GetLivePaymentByOrderID(ctx, id)
		if err != nil {
			if err == store.ErrNotFound {
				return nil
			}
			return err
		}

		pay.Status = orm.PaymentStatusCancelled
		return tx.UpdatePayment(ctx, pay)
	})
}
