package orm

import "time"

// ProviderStatus represents the operational status of a storage
// provider backend.
type ProviderStatus int32

const (
	ProviderStatusUnknown ProviderStatus = iota
	ProviderStatusActive
	ProviderStatusInactive
	ProviderStatusMaintenance
	ProviderStatusDeprecated
)

var (
	providerStatusName = map[ProviderStatus]string{
		ProviderStatusActive:      "ACTIVE",
		ProviderStatusInactive:    "INACTIVE",
		ProviderStatusMaintenance: "MAINTENANCE",
		ProviderStatusDeprecated:  "DEPRECATED",
	}

	providerStatusValue = map[string]ProviderStatus{
		"ACTIVE":      ProviderStatusActive,
		"INACTIVE":    ProviderStatusInactive,
		"MAINTENANCE": ProviderStatusMaintenance,
		"DEPRECATED":  ProviderStatusDeprecated,
	}
)

// String returns the string representation of the provider status.
func (s ProviderStatus) String() string {
	if v, ok := providerStatusName[s]; ok {
		return v
	}

	return "UNKNOWN"
}

// ProviderStatusFromString parses a provider status string.
func ProviderStatusFromString(str string) ProviderStatus {
	return providerStatusValue[str]
}

// NetworkType distinguishes a provider's chain environment.
type NetworkType int32

const (
	NetworkUnknown NetworkType = iota
	NetworkTestnet
	NetworkMainnet
)

func (n NetworkType) String() string {
	switch n {
	case NetworkTestnet:
		return "TESTNET"
	case NetworkMainnet:
		return "MAINNET"
	default:
		return "UNKNOWN"
	}
}

// Provider is a gorm table definition represents the storage providers.
type Provider struct {
	ID        string `gorm:"primary_key"`
	Slug      string `gorm:"uniqueIndex"`
	Network   NetworkType
	ChainID   uint64
	Status    ProviderStatus
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName change default table name
func (Provider) TableName() string {
	return "providers"
}
