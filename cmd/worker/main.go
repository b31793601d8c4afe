package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vaultmesh/checkout/cmd"
	"github.com/vaultmesh/checkout/cmd/runtime/version"
	"github.com/vaultmesh/checkout/config"
	"github.com/vaultmesh/checkout/database/mysql"
	"github.com/vaultmesh/checkout/database/store"
	"github.com/vaultmesh/checkout/orchestrator"
	"github.com/vaultmesh/checkout/provider"
)

// System config keys read once at worker startup, per SPEC_FULL.md §3.
const (
	configKeyPlanSyncSeconds = "plan_sync_interval_seconds"
	configKeyMaintenanceMode = "maintenance_mode"
)

func main() {
	app := cli.App{
		Name:    "checkout-worker",
		Usage:   "background allocation orchestrator: confirmation polling, recovery sweep, provider plan sync",
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
		logrus.WithError(err).Fatal("running checkout-worker failed")
	}
}

func exec(ctx *cli.Context) error {
	cfg := &config.WorkerConfig{}
	if err := config.LoadConfig(cfg); err != nil {
		logrus.WithError(err).Fatal("reading worker config failed")
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
	sweep := orchestrator.NewSweep(st, orch)

	if maintenanceMode(ctx.Context, st) {
		logrus.Warn("maintenance_mode system config is set, worker is idling instead of sweeping/syncing")
		<-ctx.Context.Done()
		return nil
	}

	planSyncSeconds := planSyncInterval(ctx.Context, st, cfg.PlanSyncSeconds)

	runCtx, cancel := signalContext(ctx.Context)
	defer cancel()

	go runPlanSync(runCtx, planSyncSeconds, reg, st)

	sweep.Run(runCtx)
	return nil
}

// maintenanceMode reads the maintenance_mode system config row, falling
// back to false (normal operation) if the row is absent or unparsable.
func maintenanceMode(ctx context.Context, st store.Store) bool {
	c, err := st.GetSystemConfig(ctx, configKeyMaintenanceMode)
	if err != nil {
		return false
	}
	on, err := strconv.ParseBool(c.Value)
	return err == nil && on
}

// planSyncInterval reads the plan_sync_interval_seconds system config
// override, falling back to the compiled config value when the row is
// absent or unparsable.
func planSyncInterval(ctx context.Context, st store.Store, fallback uint64) uint64 {
	c, err := st.GetSystemConfig(ctx, configKeyPlanSyncSeconds)
	if err != nil {
		return fallback
	}
	seconds, err := strconv.ParseUint(c.Value, 10, 64)
	if err != nil {
		logrus.WithError(err).Warn("plan_sync_interval_seconds system config is not a valid uint, using compiled default")
		return fallback
	}
	return seconds
}

// signalContext cancels the returned context on SIGINT/SIGTERM so the
// sweep and plan-sync loops shut down cleanly instead of being killed
// mid-transaction.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigc
		logrus.Info("got interrupt, shutting down worker")
		signal.Stop(sigc)
		cancel()
	}()

	return ctx, cancel
}

// runPlanSync reconciles every registered provider's remote plan
// catalog into the store on a fixed interval, matching the teacher's
// ticker-driven sync loop but against provider.Registry.SyncAll
// instead of a single chain source.
func runPlanSync(ctx context.Context, intervalSeconds uint64, reg *provider.Registry, st store.Store) {
	if intervalSeconds == 0 {
		intervalSeconds = 6 * 60 * 60
	}

	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, outcome := range reg.SyncAll(ctx, st) {
				log := logrus.WithFields(logrus.Fields{
					"provider": outcome.Slug,
					"added":    outcome.Added,
					"updated":  outcome.Updated,
					"removed":  outcome.Removed,
				})
				if len(outcome.Errors) > 0 {
					log.WithField("errors", len(outcome.Errors)).Warn("plan sync completed with errors")
					continue
				}
				log.Info("plan sync completed")
			}
		}
	}
}
