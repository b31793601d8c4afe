// Package service implements the REST-facing handlers registered by
// api/server. Each exported method matches the (*server.Server).handle
// contract: func(*gin.Context[, *Req]) (*Resp, error) or
// func(*gin.Context[, *Req]) error.
package service

import (
	"github.com/gin-gonic/gin"

	"github.com/vaultmesh/checkout/database/store"
	"github.com/vaultmesh/checkout/payment"
	"github.com/vaultmesh/checkout/provider"
)

// Service holds the dependencies every handler needs: the persistence
// contract, the provider registry, the payment processor, and the two
// higher-level collaborators (Checkout initiator, Webhook ingestor)
// built from them.
type Service struct {
	Store    store.Store
	Registry *provider.Registry

	checkout *payment.Checkout
	webhook  *payment.Webhook
}

// New wires a Service. sched is the allocation scheduler invoked by
// the webhook ingestor after a successful payment; passing the
// orchestrator here rather than importing it directly avoids a
// payment<->orchestrator import cycle.
func New(st store.Store, reg *provider.Registry, proc payment.Processor, sched payment.AllocationScheduler) *Service {
	return &Service{
		Store:    st,
		Registry: reg,
		checkout: payment.NewCheckout(st, proc),
		webhook:  payment.NewWebhook(st, proc, sched),
	}
}

type pingResp struct {
	Pong string `json:"pong"`
}

// Ping is a liveness probe, kept from the teacher's own Ping handler.
func (s *Service) Ping(_ *gin.Context) (*pingResp, error) {
	return &pingResp{Pong: "pong"}, nil
}
