package orm

import "time"

// PlanStatus represents the availability of a storage plan.
type PlanStatus int32

const (
	PlanStatusUnknown PlanStatus = iota
	PlanStatusAvailable
	PlanStatusUnavailable
	PlanStatusDeprecated
)

var planStatusName = map[PlanStatus]string{
	PlanStatusAvailable:   "AVAILABLE",
	PlanStatusUnavailable: "UNAVAILABLE",
	PlanStatusDeprecated:  "DEPRECATED",
}

func (s PlanStatus) String() string {
	if v, ok := planStatusName[s]; ok {
		return v
	}

	return "UNKNOWN"
}

// StoragePlan is a gorm table definition represents the storage_plans.
//
// (ProviderID, ExternalPlanID) is unique per provider.
type StoragePlan struct {
	ID             string `gorm:"primary_key"`
	ProviderID     string `gorm:"index:idx_plan_provider_external,unique,priority:1"`
	ExternalPlanID string `gorm:"index:idx_plan_provider_external,unique,priority:2"`
	SizeGB         uint64
	SizeBytes      uint64
	DurationDays   uint32
	PriceCents     int64
	PriceNative    string
	Currency       string
	Status         PlanStatus
	Active         bool
	Version        uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Provider *Provider `gorm:"foreignkey:ProviderID"`
}

// TableName change default table name
func (StoragePlan) TableName() string {
	return "storage_plans"
}

// IsPurchasable reports whether the plan can back a new checkout.
func (p *StoragePlan) IsPurchasable() bool {
	return p.Active && p.Status == PlanStatusAvailable
}
