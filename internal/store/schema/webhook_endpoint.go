package schema

import "time"

// WebhookEndpoint represents the webhook_endpoints table - the inbound
// callback identities registered with the event provider. A single endpoint
// fans out to one or more indexing configurations.
type WebhookEndpoint struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the owning user
	UserID uint64 `gorm:"column:user_id;not null;index"`
	// WebhookID is the public path token for the inbound URL (UUID)
	WebhookID string `gorm:"column:webhook_id;not null;unique;type:varchar(36)"`
	// HeliusWebhookID is the provider-side identifier returned at registration
	HeliusWebhookID string `gorm:"column:helius_webhook_id;type:varchar(255)"`
	// URL is the externally reachable inbound URL registered with the provider
	URL string `gorm:"column:url;not null;type:text"`
	// IsActive indicates whether inbound deliveries are still accepted.
	// Terminal processing failures deactivate the endpoint.
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// LastError is the most recent terminal failure reason
	LastError string `gorm:"column:last_error;type:text"`
	// LastErrorAt is the timestamp of the most recent terminal failure
	LastErrorAt *time.Time `gorm:"column:last_error_at;type:timestamptz"`
	// CreatedAt is the timestamp when this endpoint was registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this endpoint was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	User           User                    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Configurations []IndexingConfiguration `gorm:"foreignKey:WebhookEndpointID"`
}

// TableName specifies the table name for the WebhookEndpoint model
func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}
