package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the application tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.User{},
		&schema.DatabaseConnection{},
		&schema.WebhookEndpoint{},
		&schema.IndexingConfiguration{},
		&schema.SyncStatus{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetUserByExternalID retrieves a user by identity-provider subject
func (s *pgStore) GetUserByExternalID(ctx context.Context, externalID string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateUser persists a new user
func (s *pgStore) CreateUser(ctx context.Context, user *schema.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateDatabaseConnection persists a new destination database connection
func (s *pgStore) CreateDatabaseConnection(ctx context.Context, conn *schema.DatabaseConnection) error {
	if err := s.db.WithContext(ctx).Create(conn).Error; err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	return nil
}

// GetDatabaseConnection retrieves a connection owned by a user
func (s *pgStore) GetDatabaseConnection(ctx context.Context, userID, id uint64) (*schema.DatabaseConnection, error) {
	var conn schema.DatabaseConnection
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConnectionNotFound
		}
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	return &conn, nil
}

// ListDatabaseConnections lists a user's connections
func (s *pgStore) ListDatabaseConnections(ctx context.Context, userID uint64) ([]schema.DatabaseConnection, error) {
	var conns []schema.DatabaseConnection
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list database connections: %w", err)
	}
	return conns, nil
}

// DeleteDatabaseConnection removes a connection owned by a user
func (s *pgStore) DeleteDatabaseConnection(ctx context.Context, userID, id uint64) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&schema.DatabaseConnection{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete database connection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConnectionNotFound
	}
	return nil
}

// CreateWebhookEndpoint persists a new webhook endpoint
func (s *pgStore) CreateWebhookEndpoint(ctx context.Context, endpoint *schema.WebhookEndpoint) error {
	if err := s.db.WithContext(ctx).Create(endpoint).Error; err != nil {
		return fmt.Errorf("failed to create webhook endpoint: %w", err)
	}
	return nil
}

// GetWebhookEndpointByWebhookID retrieves an endpoint by public webhook ID
// with configurations and their destination connections preloaded
func (s *pgStore) GetWebhookEndpointByWebhookID(ctx context.Context, webhookID string) (*schema.WebhookEndpoint, error) {
	var endpoint schema.WebhookEndpoint
	err := s.db.WithContext(ctx).
		Preload("Configurations").
		Preload("Configurations.DatabaseConnection").
		Where("webhook_id = ?", webhookID).
		First(&endpoint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook endpoint: %w", err)
	}
	return &endpoint, nil
}

// ListWebhookEndpoints lists a user's webhook endpoints
func (s *pgStore) ListWebhookEndpoints(ctx context.Context, userID uint64) ([]schema.WebhookEndpoint, error) {
	var endpoints []schema.WebhookEndpoint
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook endpoints: %w", err)
	}
	return endpoints, nil
}

// DeleteWebhookEndpoint removes an endpoint owned by a user and returns the
// deleted record
func (s *pgStore) DeleteWebhookEndpoint(ctx context.Context, userID, id uint64) (*schema.WebhookEndpoint, error) {
	var endpoint schema.WebhookEndpoint
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&endpoint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("failed to get webhook endpoint: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&endpoint).Error; err != nil {
		return nil, fmt.Errorf("failed to delete webhook endpoint: %w", err)
	}
	return &endpoint, nil
}

// DeactivateWebhookEndpoint marks an endpoint inactive and records the
// failure reason
func (s *pgStore) DeactivateWebhookEndpoint(ctx context.Context, id uint64, reason string) error {
	err := s.db.WithContext(ctx).
		Model(&schema.WebhookEndpoint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":     false,
			"last_error":    reason,
			"last_error_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate webhook endpoint: %w", err)
	}
	return nil
}

// CreateIndexingConfiguration persists a new indexing configuration
func (s *pgStore) CreateIndexingConfiguration(ctx context.Context, cfg *schema.IndexingConfiguration) error {
	if err := s.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return fmt.Errorf("failed to create indexing configuration: %w", err)
	}
	return nil
}

// GetIndexingConfiguration retrieves a configuration owned by a user
func (s *pgStore) GetIndexingConfiguration(ctx context.Context, userID, id uint64) (*schema.IndexingConfiguration, error) {
	var cfg schema.IndexingConfiguration
	err := s.db.WithContext(ctx).
		Preload("DatabaseConnection").
		Where("id = ? AND user_id = ?", id, userID).
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConfigurationNotFound
		}
		return nil, fmt.Errorf("failed to get indexing configuration: %w", err)
	}
	return &cfg, nil
}

// ListIndexingConfigurations lists a user's configurations
func (s *pgStore) ListIndexingConfigurations(ctx context.Context, userID uint64) ([]schema.IndexingConfiguration, error) {
	var cfgs []schema.IndexingConfiguration
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cfgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list indexing configurations: %w", err)
	}
	return cfgs, nil
}

// CreateSyncStatus appends one row to the ingestion audit trail
func (s *pgStore) CreateSyncStatus(ctx context.Context, status *schema.SyncStatus) error {
	if err := s.db.WithContext(ctx).Create(status).Error; err != nil {
		return fmt.Errorf("failed to create sync status: %w", err)
	}
	return nil
}

// ListSyncStatuses lists the most recent audit rows for a configuration
func (s *pgStore) ListSyncStatuses(ctx context.Context, configurationID uint64, limit int) ([]schema.SyncStatus, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var statuses []schema.SyncStatus
	err := s.db.WithContext(ctx).
		Where("indexing_configuration_id = ?", configurationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync statuses: %w", err)
	}
	return statuses, nil
}
