package orm

import "time"

// ProviderSyncLog records one Registry.SyncAll pass over a single
// provider's plan catalog.
type ProviderSyncLog struct {
	ID           string `gorm:"primary_key"`
	ProviderID   string `gorm:"index"`
	StartedAt    time.Time
	FinishedAt   *time.Time
	PlansAdded   uint32
	PlansUpdated uint32
	PlansRemoved uint32
	ErrorCount   uint32
	LastError    string
	CreatedAt    time.Time
}

// TableName change default table name
func (ProviderSyncLog) TableName() string {
	return "provider_sync_logs"
}
