package schema

import (
	"time"

	"github.com/blockpipe/solindexer/internal/domain"
)

// IndexingConfiguration represents the indexing_configurations table - one
// subscription binding an event category to a destination table in a user's
// database. The ingestion pipeline reads configurations but never mutates
// them; only their SyncStatus children are appended.
type IndexingConfiguration struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the owning user
	UserID uint64 `gorm:"column:user_id;not null;index"`
	// WebhookEndpointID is the inbound endpoint this configuration listens on
	WebhookEndpointID uint64 `gorm:"column:webhook_endpoint_id;not null;index"`
	// DatabaseConnectionID references the destination database
	DatabaseConnectionID uint64 `gorm:"column:database_connection_id;not null"`
	// Category is the event category captured by this configuration
	Category domain.EventCategory `gorm:"column:category;not null;type:varchar(32)"`
	// TargetTable is the destination table name in the user's database
	TargetTable string `gorm:"column:target_table;not null;type:text"`
	// FilterExpression optionally narrows which events are captured
	FilterExpression string `gorm:"column:filter_expression;type:text"`
	// IsActive indicates whether this configuration should process events
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// CreatedAt is the timestamp when this configuration was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this configuration was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	User               User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	WebhookEndpoint    WebhookEndpoint    `gorm:"foreignKey:WebhookEndpointID;constraint:OnDelete:CASCADE"`
	DatabaseConnection DatabaseConnection `gorm:"foreignKey:DatabaseConnectionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the IndexingConfiguration model
func (IndexingConfiguration) TableName() string {
	return "indexing_configurations"
}
