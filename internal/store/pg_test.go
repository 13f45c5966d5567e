package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			terminateContainer(ctx)
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Initialize the database schema
	if err := Migrate(testDB); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	terminateContainer(ctx)
	os.Exit(code)
}

func terminateContainer(ctx context.Context) {
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}
}

// seedUser creates a user with a unique external ID.
func seedUser(t *testing.T, s Store) *schema.User {
	t.Helper()
	user := &schema.User{ExternalID: "ext-" + uuid.New().String()}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// seedConnection creates a connection for a user.
func seedConnection(t *testing.T, s Store, userID uint64) *schema.DatabaseConnection {
	t.Helper()
	conn := &schema.DatabaseConnection{
		UserID:            userID,
		Name:              "test connection",
		Host:              "localhost",
		Port:              5432,
		Username:          "indexer",
		EncryptedPassword: "c2VhbGVk",
		DatabaseName:      "analytics",
		SchemaName:        "public",
	}
	require.NoError(t, s.CreateDatabaseConnection(context.Background(), conn))
	return conn
}

// seedEndpoint creates a webhook endpoint for a user.
func seedEndpoint(t *testing.T, s Store, userID uint64) *schema.WebhookEndpoint {
	t.Helper()
	webhookID := uuid.New().String()
	endpoint := &schema.WebhookEndpoint{
		UserID:    userID,
		WebhookID: webhookID,
		URL:       "https://indexer.example.com/webhooks/" + webhookID,
		IsActive:  true,
	}
	require.NoError(t, s.CreateWebhookEndpoint(context.Background(), endpoint))
	return endpoint
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	t.Run("round trips a user by external ID", func(t *testing.T) {
		user := seedUser(t, s)

		found, err := s.GetUserByExternalID(ctx, user.ExternalID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("returns nil for an unknown external ID", func(t *testing.T) {
		found, err := s.GetUserByExternalID(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("rejects a duplicate external ID", func(t *testing.T) {
		user := seedUser(t, s)
		err := s.CreateUser(ctx, &schema.User{ExternalID: user.ExternalID})
		assert.Error(t, err)
	})
}

func TestDatabaseConnectionStore(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	t.Run("scopes reads to the owning user", func(t *testing.T) {
		owner := seedUser(t, s)
		other := seedUser(t, s)
		conn := seedConnection(t, s, owner.ID)

		found, err := s.GetDatabaseConnection(ctx, owner.ID, conn.ID)
		require.NoError(t, err)
		assert.Equal(t, conn.ID, found.ID)

		_, err = s.GetDatabaseConnection(ctx, other.ID, conn.ID)
		assert.ErrorIs(t, err, domain.ErrConnectionNotFound)
	})

	t.Run("lists only the user's connections", func(t *testing.T) {
		owner := seedUser(t, s)
		other := seedUser(t, s)
		seedConnection(t, s, owner.ID)
		seedConnection(t, s, owner.ID)
		seedConnection(t, s, other.ID)

		conns, err := s.ListDatabaseConnections(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, conns, 2)
	})

	t.Run("scopes deletes to the owning user", func(t *testing.T) {
		owner := seedUser(t, s)
		other := seedUser(t, s)
		conn := seedConnection(t, s, owner.ID)

		err := s.DeleteDatabaseConnection(ctx, other.ID, conn.ID)
		assert.ErrorIs(t, err, domain.ErrConnectionNotFound)

		require.NoError(t, s.DeleteDatabaseConnection(ctx, owner.ID, conn.ID))
		_, err = s.GetDatabaseConnection(ctx, owner.ID, conn.ID)
		assert.ErrorIs(t, err, domain.ErrConnectionNotFound)
	})
}

func TestWebhookEndpointStore(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	t.Run("preloads configurations and their connections", func(t *testing.T) {
		user := seedUser(t, s)
		conn := seedConnection(t, s, user.ID)
		endpoint := seedEndpoint(t, s, user.ID)

		cfg := &schema.IndexingConfiguration{
			UserID:               user.ID,
			WebhookEndpointID:    endpoint.ID,
			DatabaseConnectionID: conn.ID,
			Category:             domain.CategoryNFTPrices,
			TargetTable:          "nft_sales",
			IsActive:             true,
		}
		require.NoError(t, s.CreateIndexingConfiguration(ctx, cfg))

		found, err := s.GetWebhookEndpointByWebhookID(ctx, endpoint.WebhookID)
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Len(t, found.Configurations, 1)
		assert.Equal(t, domain.CategoryNFTPrices, found.Configurations[0].Category)
		assert.Equal(t, conn.ID, found.Configurations[0].DatabaseConnection.ID)
		assert.Equal(t, "localhost", found.Configurations[0].DatabaseConnection.Host)
	})

	t.Run("returns nil for an unknown webhook ID", func(t *testing.T) {
		found, err := s.GetWebhookEndpointByWebhookID(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("deactivation records the failure reason", func(t *testing.T) {
		user := seedUser(t, s)
		endpoint := seedEndpoint(t, s, user.ID)

		require.NoError(t, s.DeactivateWebhookEndpoint(ctx, endpoint.ID, "schema validation failed"))

		found, err := s.GetWebhookEndpointByWebhookID(ctx, endpoint.WebhookID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.False(t, found.IsActive)
		assert.Equal(t, "schema validation failed", found.LastError)
		assert.NotNil(t, found.LastErrorAt)
	})

	t.Run("delete returns the removed record and scopes to the owner", func(t *testing.T) {
		owner := seedUser(t, s)
		other := seedUser(t, s)
		endpoint := seedEndpoint(t, s, owner.ID)

		_, err := s.DeleteWebhookEndpoint(ctx, other.ID, endpoint.ID)
		assert.ErrorIs(t, err, domain.ErrWebhookNotFound)

		deleted, err := s.DeleteWebhookEndpoint(ctx, owner.ID, endpoint.ID)
		require.NoError(t, err)
		assert.Equal(t, endpoint.WebhookID, deleted.WebhookID)

		found, err := s.GetWebhookEndpointByWebhookID(ctx, endpoint.WebhookID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestSyncStatusStore(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	user := seedUser(t, s)
	conn := seedConnection(t, s, user.ID)
	endpoint := seedEndpoint(t, s, user.ID)

	cfg := &schema.IndexingConfiguration{
		UserID:               user.ID,
		WebhookEndpointID:    endpoint.ID,
		DatabaseConnectionID: conn.ID,
		Category:             domain.CategoryTokenPrices,
		TargetTable:          "swaps",
		IsActive:             true,
	}
	require.NoError(t, s.CreateIndexingConfiguration(ctx, cfg))

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.CreateSyncStatus(ctx, &schema.SyncStatus{
			IndexingConfigurationID: cfg.ID,
			Status:                  schema.SyncStateFailed,
			ErrorMessage:            fmt.Sprintf("attempt %d failed", i),
			Attempt:                 i,
		}))
	}

	t.Run("honors the limit", func(t *testing.T) {
		statuses, err := s.ListSyncStatuses(ctx, cfg.ID, 3)
		require.NoError(t, err)
		assert.Len(t, statuses, 3)
	})

	t.Run("falls back to the default limit for bad values", func(t *testing.T) {
		statuses, err := s.ListSyncStatuses(ctx, cfg.ID, -1)
		require.NoError(t, err)
		assert.Len(t, statuses, 5)
	})

	t.Run("returns nothing for an unknown configuration", func(t *testing.T) {
		statuses, err := s.ListSyncStatuses(ctx, 999999, 10)
		require.NoError(t, err)
		assert.Empty(t, statuses)
	})
}
