package schema

import "time"

// User represents the users table - dashboard account owners
type User struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ExternalID is the identity-provider subject for this user
	ExternalID string `gorm:"column:external_id;not null;unique;type:varchar(255)"`
	// Email is the user's email address
	Email string `gorm:"column:email;not null;type:text"`
	// CreatedAt is the timestamp when this user was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this user was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
