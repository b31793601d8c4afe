package service

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaultmesh/checkout/apperrors"
)

// signatureHeader is the processor-specific header carrying the
// webhook's signature, per SPEC_FULL.md §6.
const signatureHeader = "Stripe-Signature"

// Webhook ingests a raw, signed payment-processor event. It reads the
// body itself rather than through handle()'s JSON binding because
// signature verification requires the exact raw bytes.
func (s *Service) Webhook(c *gin.Context) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "failed to read webhook body")
	}

	sig := c.GetHeader(signatureHeader)
	if err := s.webhook.Handle(c.Request.Context(), body, sig); err != nil {
		// Handle only ever returns non-nil on signature failure; every
		// other error is logged internally and swallowed there so the
		// endpoint still replies 2xx, absorbing at-least-once delivery.
		return err
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
	return nil
}
