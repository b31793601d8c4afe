package payment

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/apperrors"
	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
)

// AllocationScheduler is the seam between the Webhook Ingestor and the
// Allocation Orchestrator, so that payment does not import the
// orchestrator package. Schedule is fire-and-forget: failures are
// logged by the implementation and never propagate back into the
// webhook handler's response.
type AllocationScheduler interface {
	Schedule(orderID string)
}

// Webhook is the Webhook Ingestor: verifies signed processor events
// and applies the state-transition table of SPEC_FULL.md §4.4.
type Webhook struct {
	Store     store.Store
	Processor Processor
	Scheduler AllocationScheduler
}

// NewWebhook returns a Webhook ingestor.
func NewWebhook(st store.Store, proc Processor, sched AllocationScheduler) *Webhook {
	return &Webhook{Store: st, Processor: proc, Scheduler: sched}
}

// Handle verifies payload against signatureHeader and dispatches to
// the matching handler. Signature failure is the only error this
// returns; every other failure is logged and swallowed so the caller
// still responds 2xx, absorbing the processor's at-least-once delivery.
func (w *Webhook) Handle(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := w.Processor.VerifyWebhookSignature(payload, signatureHeader)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInvalidSignature, err, "webhook signature verification failed")
	}

	log := logrus.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})

	var handleErr error
	switch event.Type {
	case EventCheckoutSessionCompleted:
		handleErr = w.onSessionCompleted(ctx, event)
	case EventCheckoutSessionExpired:
		handleErr = w.onSessionExpired(ctx, event)
	case EventPaymentIntentSucceeded:
		handleErr = w.onIntentSucceeded(ctx, event)
	case EventPaymentIntentFailed:
		handleErr = w.onIntentFailed(ctx, event)
	default:
		log.Info("ignoring unhandled webhook event type")
		return nil
	}

	if handleErr != nil {
		log.WithError(handleErr).Error("webhook handler failed, event dropped after logging")
	}

	return nil
}

func (w *Webhook) onSessionCompleted(ctx context.Context, event *Event) error {
	pay, err := w.Store.GetPaymentBySessionID(ctx, event.Object.SessionID)
	if err != nil {
		return err
	}
	if pay.Status == orm.PaymentStatusSucceeded {
		return nil
	}

	now := time.Now().UTC()
	err = w.Store.Transaction(ctx, func(tx store.Store) error {
		pay.Status = orm.PaymentStatusSucceeded
		pay.ProcessorPaymentIntentID = strPtr(event.Object.PaymentIntentID)
		pay.ProcessedAt = &now
		if err := tx.UpdatePayment(ctx, pay); err != nil {
			return err
		}

		return tx.UpdateOrderStatus(ctx, pay.OrderID, orm.OrderStatusPendingPayment, orm.OrderStatusPaymentCompleted, func(o *orm.Order) {
			o.PaidAt = &now
		})
	})
	if err != nil {
		return err
	}

	w.Scheduler.Schedule(pay.OrderID)
	return nil
}

func (w *Webhook) onSessionExpired(ctx context.Context, event *Event) error {
	pay, err := w.Store.GetPaymentBySessionID(ctx, event.Object.SessionID)
	if err != nil {
		return err
	}
	if pay.Status != orm.PaymentStatusPending {
		return nil
	}

	return w.Store.Transaction(ctx, func(tx store.Store) error {
		pay.Status = orm.PaymentStatusCancelled
		if err := tx.UpdatePayment(ctx, pay); err != nil {
			return err
		}

		return tx.UpdateOrderStatus(ctx, pay.OrderID, orm.OrderStatusPendingPayment, orm.OrderStatusCancelled, func(o *orm.Order) {
			o.StatusMessage = "Payment session expired"
		})
	})
}

func (w *Webhook) onIntentSucceeded(ctx context.Context, event *Event) error {
	pay, err := w.Store.GetPaymentByIntentID(ctx, event.Object.PaymentIntentID)
	if err != nil {
		return err
	}
	if pay.Status == orm.PaymentStatusSucceeded {
		return nil
	}

	now := time.Now().UTC()
	pay.Status = orm.PaymentStatusSucceeded
	pay.ProcessedAt = &now
	return w.Store.UpdatePayment(ctx, pay)
}

func (w *Webhook) onIntentFailed(ctx context.Context, event *Event) error {
	pay, err := w.Store.GetPaymentByIntentID(ctx, event.Object.PaymentIntentID)
	if err != nil {
		return err
	}
	if pay.Status == orm.PaymentStatusSucceeded || pay.Status == orm.PaymentStatusFailed {
		return nil
	}

	return w.Store.Transaction(ctx, func(tx store.Store) error {
		pay.Status = orm.PaymentStatusFailed
		pay.LastError = event.Object.LastError
		if err := tx.UpdatePayment(ctx, pay); err != nil {
			return err
		}

		return tx.UpdateOrderStatus(ctx, pay.OrderID, orm.OrderStatusPendingPayment, orm.OrderStatusPaymentFailed, func(o *orm.Order) {
			o.StatusMessage = event.Object.LastError
		})
	})
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
