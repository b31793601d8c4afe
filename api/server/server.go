package server

import (
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/api/service"
)

// Config configures the API server's ambient concerns.
type Config struct {
	Port         int
	CORSOrigins  []string
	RateLimit    RateLimitConfig
}

// Server defines an instance of a server that handles the requests of
// the third-party application.
type Server struct {
	port   int
	engine *gin.Engine
}

// New returns a new instance of the server.
func New(cfg Config, svc *service.Service) *Server {
	server := &Server{
		port:   cfg.Port,
		engine: gin.Default(),
	}

	server.registerRouter(cfg, svc)
	return server
}

func (s *Server) registerRouter(cfg Config, svc *service.Service) {
	if len(cfg.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowMethods = []string{"GET", "POST"}
		s.engine.Use(cors.New(corsCfg))
	}

	s.engine.Use(rateLimit(cfg.RateLimit))
	s.engine.Use(handleError())

	g := s.engine.Group("v1")

	g.GET("ping", s.handle(svc.Ping))

	g.POST("payments/checkout", s.handle(svc.Checkout))
	g.POST("payments/webhook", s.handle(svc.Webhook))

	g.GET("orders/:id", s.handle(svc.GetOrder))
	g.POST("orders/:id/cancel", s.handle(svc.CancelOrder))
}

// Run the server
func (s *Server) Run() {
	if err := s.engine.Run(fmt.Sprintf(":%d", s.port)); err != nil {
		logrus.WithError(err).Error("run the server failed")
		os.Exit(1)
	}
}
