package orm

import "time"

// SystemConfig is a key/value row store for runtime-tunable operator
// settings, read once at worker startup.
type SystemConfig struct {
	Key       string `gorm:"primary_key;column:config_key"`
	Value     string `gorm:"column:config_value"`
	UpdatedAt time.Time
}

// TableName change default table name
func (SystemConfig) TableName() string {
	return "system_config"
}
