package service

import (
	"github.com/gin-gonic/gin"

	"github.com/vaultmesh/checkout/payment"
)

// checkoutReq is bound and validated from the request body per
// SPEC_FULL.md §6: userId/planId required, successUrl/cancelUrl must
// be valid URLs.
type checkoutReq struct {
	UserID         string `json:"userId" validate:"required"`
	PlanID         string `json:"planId" validate:"required"`
	SuccessURL     string `json:"successUrl" validate:"required,url"`
	CancelURL      string `json:"cancelUrl" validate:"required,url"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type checkoutResp struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
	OrderID    string `json:"orderId"`
	PaymentID  string `json:"paymentId"`
}

// Checkout creates the order + payment pair and a hosted-checkout
// session, per SPEC_FULL.md §4.3.
func (s *Service) Checkout(c *gin.Context, req *checkoutReq) (*checkoutResp, error) {
	result, err := s.checkout.Initiate(c.Request.Context(), payment.CheckoutInput{
		UserID:         req.UserID,
		PlanID:         req.PlanID,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	return &checkoutResp{
		SessionID:  result.SessionID,
		SessionURL: result.SessionURL,
		OrderID:    result.OrderID,
		PaymentID:  result.PaymentID,
	}, nil
}
