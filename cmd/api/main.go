package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vaultmesh/checkout/api/server"
	"github.com/vaultmesh/checkout/api/service"
	"github.com/vaultmesh/checkout/cmd"
	"github.com/vaultmesh/checkout/cmd/runtime/version"
	"github.com/vaultmesh/checkout/config"
	"github.com/vaultmesh/checkout/database/mysql"
	"github.com/vaultmesh/checkout/database/store"
	"github.com/vaultmesh/checkout/orchestrator"
	"github.com/vaultmesh/checkout/payment/stripeprocessor"
)

func main() {
	app := cli.App{
		Name:    "checkout-api",
		Usage:   "REST surface for storage plan checkout: create sessions, ingest payment webhooks, serve order status",
		Action:  exec,
		Version: version.Get(),
		Flags: []cli.Flag{
			cmd.ConfigPathFlag,
			cmd.VerbosityFlag,
			cmd.LogFormatFlag,
		},
	}

	app.Before = func(ctx *cli.Context) error {
		lvl, err := logrus.ParseLevel(ctx.String(cmd.VerbosityFlag.Name))
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)

		if ctx.String(cmd.LogFormatFlag.Name) == "json" {
			logrus.SetFormatter(&logrus.JSONFormatter{})
		}

		return nil
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("running checkout-api failed")
	}
}

func exec(ctx *cli.Context) error {
	cfg := &config.APIConfig{}
	if err := config.LoadConfig(cfg); err != nil {
		logrus.WithError(err).Fatal("reading api config failed")
	}
	if cfg.Payment.SecretKey == "" || cfg.Payment.WebhookSecret == "" {
		logrus.Fatal("payment secret_key and webhook_secret must be set")
	}

	db, err := mysql.NewMySQLDB(cfg.MySQL)
	if err != nil {
		logrus.WithError(err).Fatal("initialize mysql db error")
	}
	st := store.New(db)

	reg, err := cmd.BuildRegistry(cfg.Providers)
	if err != nil {
		logrus.WithError(err).Fatal("building provider registry failed")
	}
	reg.Init(ctx.Context)

	poller := orchestrator.NewPoller(st, reg)
	orch := orchestrator.New(st, reg, poller)

	proc := stripeprocessor.New(stripeprocessor.Config{
		SecretKey:     cfg.Payment.SecretKey,
		WebhookSecret: cfg.Payment.WebhookSecret,
		BaseURL:       cfg.Payment.BaseURL,
	})

	svc := service.New(st, reg, proc, orch)

	srv := server.New(server.Config{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			WindowMS:    cfg.RateLimitWindowMS,
			MaxRequests: cfg.RateLimitMax,
		},
	}, svc)

	go sweepInBackground(ctx.Context, st, orch)

	srv.Run()
	return nil
}

// sweepInBackground runs the recovery sweep alongside the HTTP server
// so a restarted API process resumes any orders left mid-allocation.
func sweepInBackground(ctx context.Context, st store.Store, orch *orchestrator.Orchestrator) {
	orchestrator.NewSweep(st, orch).Run(ctx)
}
