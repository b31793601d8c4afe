package orm

import "time"

// User is a gorm table definition represents the users.
//
// WalletAddress and ProcessorCustomerID are optional; the unique index
// on ProcessorCustomerID only rejects duplicate non-null values (MySQL
// treats NULL as distinct under a unique index).
type User struct {
	ID                 string `gorm:"primary_key"`
	Email              string `gorm:"column:email;uniqueIndex"`
	WalletAddress      *string
	ProcessorCustomerID *string `gorm:"column:processor_customer_id;uniqueIndex"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName change default table name
func (User) TableName() string {
	return "users"
}
