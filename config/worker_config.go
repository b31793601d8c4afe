package config

import "github.com/vaultmesh/checkout/database/mysql"

// WorkerConfig configures cmd/worker: the confirmation poller, the
// periodic sweep and the provider plan-sync cron, collapsing the
// teacher's cmd/sync + cmd/indexer split into one binary since this
// domain has no chain-indexing analog.
type WorkerConfig struct {
	MySQL             mysql.Config     `json:"mysql"`
	Providers         []ProviderConfig `json:"providers"`
	PlanSyncSeconds   uint64           `json:"plan_sync_seconds"`
}
