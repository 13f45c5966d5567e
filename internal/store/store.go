package store

import (
	"context"

	"github.com/blockpipe/solindexer/internal/store/schema"
)

// Store defines the interface for application database operations
type Store interface {
	// GetUserByExternalID retrieves a user by identity-provider subject
	GetUserByExternalID(ctx context.Context, externalID string) (*schema.User, error)
	// CreateUser persists a new user
	CreateUser(ctx context.Context, user *schema.User) error

	// CreateDatabaseConnection persists a new destination database connection
	CreateDatabaseConnection(ctx context.Context, conn *schema.DatabaseConnection) error
	// GetDatabaseConnection retrieves a connection owned by a user
	GetDatabaseConnection(ctx context.Context, userID, id uint64) (*schema.DatabaseConnection, error)
	// ListDatabaseConnections lists a user's connections
	ListDatabaseConnections(ctx context.Context, userID uint64) ([]schema.DatabaseConnection, error)
	// DeleteDatabaseConnection removes a connection owned by a user
	DeleteDatabaseConnection(ctx context.Context, userID, id uint64) error

	// CreateWebhookEndpoint persists a new webhook endpoint
	CreateWebhookEndpoint(ctx context.Context, endpoint *schema.WebhookEndpoint) error
	// GetWebhookEndpointByWebhookID retrieves an endpoint by its public
	// webhook ID with its configurations and their destination connections
	// preloaded. Returns nil when no endpoint matches.
	GetWebhookEndpointByWebhookID(ctx context.Context, webhookID string) (*schema.WebhookEndpoint, error)
	// ListWebhookEndpoints lists a user's webhook endpoints
	ListWebhookEndpoints(ctx context.Context, userID uint64) ([]schema.WebhookEndpoint, error)
	// DeleteWebhookEndpoint removes an endpoint owned by a user and returns
	// the deleted record so the provider-side webhook can be deregistered
	DeleteWebhookEndpoint(ctx context.Context, userID, id uint64) (*schema.WebhookEndpoint, error)
	// DeactivateWebhookEndpoint marks an endpoint inactive and records the
	// failure reason for operator visibility
	DeactivateWebhookEndpoint(ctx context.Context, id uint64, reason string) error

	// CreateIndexingConfiguration persists a new indexing configuration
	CreateIndexingConfiguration(ctx context.Context, cfg *schema.IndexingConfiguration) error
	// GetIndexingConfiguration retrieves a configuration owned by a user
	GetIndexingConfiguration(ctx context.Context, userID, id uint64) (*schema.IndexingConfiguration, error)
	// ListIndexingConfigurations lists a user's configurations
	ListIndexingConfigurations(ctx context.Context, userID uint64) ([]schema.IndexingConfiguration, error)

	// CreateSyncStatus appends one row to the ingestion audit trail. The
	// trail is append-only; there is deliberately no update operation.
	CreateSyncStatus(ctx context.Context, status *schema.SyncStatus) error
	// ListSyncStatuses lists the most recent audit rows for a configuration
	ListSyncStatuses(ctx context.Context, configurationID uint64, limit int) ([]schema.SyncStatus, error)
}
