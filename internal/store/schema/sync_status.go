package schema

import (
	"time"

	"gorm.io/datatypes"
)

// SyncState is the outcome state of an ingestion attempt
type SyncState string

const (
	// SyncStatePending is the state of an attempt that has been accepted but not started
	SyncStatePending SyncState = "PENDING"
	// SyncStateProcessing is the state of an attempt that is currently running
	SyncStateProcessing SyncState = "PROCESSING"
	// SyncStateCompleted is the state of an attempt that finished successfully
	SyncStateCompleted SyncState = "COMPLETED"
	// SyncStateFailed is the state of an attempt that failed
	SyncStateFailed SyncState = "FAILED"
)

// SyncStatus represents the sync_statuses table - the append-only audit trail
// of ingestion attempts. Rows are only ever inserted, never updated or
// deleted; this table is the system of record for observability and retries.
type SyncStatus struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// IndexingConfigurationID references the configuration this attempt ran for
	IndexingConfigurationID uint64 `gorm:"column:indexing_configuration_id;not null;index"`
	// Status is the outcome state of this attempt
	Status SyncState `gorm:"column:status;not null;type:varchar(16)"`
	// RecordsProcessed is the number of rows inserted into the destination table
	RecordsProcessed int `gorm:"column:records_processed;not null;default:0"`
	// ErrorMessage contains the failure reason when Status is FAILED
	ErrorMessage string `gorm:"column:error_message;type:text"`
	// Attempt is the retry attempt number this row was written for (0 for
	// terminal rows written outside the retry loop)
	Attempt int `gorm:"column:attempt;not null;default:0"`
	// Metadata carries free-form context such as the inbound webhook identity
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	// StartedAt is the timestamp when processing began
	StartedAt *time.Time `gorm:"column:started_at;type:timestamptz"`
	// CompletedAt is the timestamp when processing finished
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamptz"`
	// CreatedAt is the timestamp when this row was appended
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	IndexingConfiguration IndexingConfiguration `gorm:"foreignKey:IndexingConfigurationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the SyncStatus model
func (SyncStatus) TableName() string {
	return "sync_statuses"
}
