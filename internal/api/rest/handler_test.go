package rest_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpipe/solindexer/internal/api/middleware"
	"github.com/blockpipe/solindexer/internal/api/rest"
	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/helius"
	"github.com/blockpipe/solindexer/internal/ingest"
	"github.com/blockpipe/solindexer/internal/secrets"
	"github.com/blockpipe/solindexer/internal/store"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

const (
	testSecret = "rest-test-secret"
	testAPIKey = "test-api-key"
	testEncKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
)

// stubStore overrides only the store methods these tests touch; anything
// else panics via the embedded nil interface.
type stubStore struct {
	store.Store

	user          *schema.User
	endpoint      *schema.WebhookEndpoint
	connections   []schema.DatabaseConnection
	created       []*schema.DatabaseConnection
	configs       []*schema.IndexingConfiguration
	webhooks      []*schema.WebhookEndpoint
	statuses      []schema.SyncStatus
	deactivations map[uint64]string
}

func newStubStore() *stubStore {
	return &stubStore{
		user:          &schema.User{ID: 1, ExternalID: "apikey"},
		deactivations: make(map[uint64]string),
	}
}

func (s *stubStore) GetUserByExternalID(context.Context, string) (*schema.User, error) {
	return s.user, nil
}

func (s *stubStore) GetWebhookEndpointByWebhookID(_ context.Context, webhookID string) (*schema.WebhookEndpoint, error) {
	if s.endpoint != nil && s.endpoint.WebhookID == webhookID {
		return s.endpoint, nil
	}
	return nil, nil
}

func (s *stubStore) CreateDatabaseConnection(_ context.Context, conn *schema.DatabaseConnection) error {
	conn.ID = uint64(len(s.created) + 1)
	s.created = append(s.created, conn)
	return nil
}

func (s *stubStore) ListDatabaseConnections(context.Context, uint64) ([]schema.DatabaseConnection, error) {
	return s.connections, nil
}

func (s *stubStore) GetDatabaseConnection(_ context.Context, _, id uint64) (*schema.DatabaseConnection, error) {
	for i := range s.connections {
		if s.connections[i].ID == id {
			return &s.connections[i], nil
		}
	}
	return nil, domain.ErrConnectionNotFound
}

func (s *stubStore) CreateWebhookEndpoint(_ context.Context, endpoint *schema.WebhookEndpoint) error {
	endpoint.ID = uint64(len(s.webhooks) + 1)
	s.webhooks = append(s.webhooks, endpoint)
	return nil
}

func (s *stubStore) CreateIndexingConfiguration(_ context.Context, cfg *schema.IndexingConfiguration) error {
	cfg.ID = uint64(len(s.configs) + 1)
	s.configs = append(s.configs, cfg)
	return nil
}

func (s *stubStore) CreateSyncStatus(_ context.Context, status *schema.SyncStatus) error {
	s.statuses = append(s.statuses, *status)
	return nil
}

func (s *stubStore) DeactivateWebhookEndpoint(_ context.Context, id uint64, reason string) error {
	s.deactivations[id] = reason
	return nil
}

// stubHeliusClient is a canned provider API.
type stubHeliusClient struct {
	createdURLs []string
	deletedIDs  []string
}

func (c *stubHeliusClient) CreateWebhook(_ context.Context, webhookURL string, _, _ []string) (string, error) {
	c.createdURLs = append(c.createdURLs, webhookURL)
	return "hel-1", nil
}

func (c *stubHeliusClient) DeleteWebhook(_ context.Context, webhookID string) error {
	c.deletedIDs = append(c.deletedIDs, webhookID)
	return nil
}

func (c *stubHeliusClient) ListWebhooks(context.Context) ([]helius.Webhook, error) {
	return nil, nil
}

func (c *stubHeliusClient) GetTokenMetadata(context.Context, string) (*helius.TokenMetadata, error) {
	return nil, nil
}

// stubFactory satisfies destdb.Factory for the orchestrator with an
// always-healthy destination.
type stubFactory struct {
	conn *stubConn
}

func (f *stubFactory) Connect(context.Context, *schema.DatabaseConnection) (destdb.Conn, error) {
	return f.conn, nil
}

type stubConn struct {
	columns []string
	inserts int
}

func (c *stubConn) Exec(_ context.Context, sql string, _ ...any) error {
	if len(sql) >= 6 && sql[:6] == "INSERT" {
		c.inserts++
	}
	return nil
}

func (c *stubConn) QueryBool(context.Context, string, ...any) (bool, error)        { return true, nil }
func (c *stubConn) QueryStrings(context.Context, string, ...any) ([]string, error) { return c.columns, nil }
func (c *stubConn) Close()                                                         {}

type fixture struct {
	router *gin.Engine
	store  *stubStore
	helius *stubHeliusClient
	box    *secrets.Box
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := newStubStore()
	heliusClient := &stubHeliusClient{}

	box, err := secrets.New(testEncKey)
	require.NoError(t, err)
	factory := destdb.NewPGFactory(box, time.Second)

	recorder := ingest.NewRecorder(st)
	executor := ingest.NewExecutor(recorder, ingest.RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	})
	orchestrator := ingest.NewOrchestrator(st, &stubFactory{conn: &stubConn{
		columns: ingest.RequiredColumns(domain.CategoryNFTPrices),
	}}, recorder, executor, testSecret)

	handler := rest.NewHandler(st, heliusClient, box, factory, orchestrator, "https://indexer.example.com")

	router := gin.New()
	rest.SetupRoutes(router, handler, middleware.AuthConfig{APIKeys: []string{testAPIKey}})

	return &fixture{router: router, store: st, helius: heliusClient, box: box}
}

func (f *fixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) doAuthed(method, path string, body any) *httptest.ResponseRecorder {
	return f.do(method, path, body, map[string]string{"Authorization": "ApiKey " + testAPIKey})
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIngestWebhookEndpoint(t *testing.T) {
	batch := helius.EventBatch{Transactions: []helius.Transaction{{
		Type:   helius.TxTypeNFTSale,
		Amount: 1_000_000_000,
		NFTs:   []helius.NFT{{Mint: "MintA"}},
	}}}
	rawBody, err := json.Marshal(batch)
	require.NoError(t, err)

	t.Run("accepts a signed delivery", func(t *testing.T) {
		f := newFixture(t)
		f.store.endpoint = &schema.WebhookEndpoint{
			ID:        1,
			WebhookID: "wh-1",
			IsActive:  true,
			Configurations: []schema.IndexingConfiguration{{
				ID:          10,
				Category:    domain.CategoryNFTPrices,
				TargetTable: "nft_sales",
				IsActive:    true,
			}},
		}

		req := httptest.NewRequest(http.MethodPost, "/webhooks/wh-1", bytes.NewReader(rawBody))
		req.Header.Set(helius.SignatureHeader, signBody(rawBody))
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)

		// PROCESSING and COMPLETED audit rows were appended
		require.Len(t, f.store.statuses, 2)
		assert.Equal(t, schema.SyncStateCompleted, f.store.statuses[1].Status)
	})

	t.Run("returns 401 for a bad signature", func(t *testing.T) {
		f := newFixture(t)
		f.store.endpoint = &schema.WebhookEndpoint{ID: 1, WebhookID: "wh-1", IsActive: true}

		req := httptest.NewRequest(http.MethodPost, "/webhooks/wh-1", bytes.NewReader(rawBody))
		req.Header.Set(helius.SignatureHeader, "deadbeef")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("returns 404 for an unknown webhook ID", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/nope", bytes.NewReader(rawBody))
		req.Header.Set(helius.SignatureHeader, signBody(rawBody))
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestConnectionEndpoints(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodGet, "/api/v1/connections", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("creates a connection with an encrypted password", func(t *testing.T) {
		f := newFixture(t)
		w := f.doAuthed(http.MethodPost, "/api/v1/connections", rest.CreateConnectionRequest{
			Name:         "prod analytics",
			Host:         "db.example.com",
			Username:     "indexer",
			Password:     "plaintext-password",
			DatabaseName: "analytics",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		require.Len(t, f.store.created, 1)
		created := f.store.created[0]
		assert.Equal(t, 5432, created.Port)
		assert.Equal(t, "public", created.SchemaName)
		assert.NotEqual(t, "plaintext-password", created.EncryptedPassword)

		plain, err := f.box.Decrypt(created.EncryptedPassword)
		require.NoError(t, err)
		assert.Equal(t, "plaintext-password", plain)

		// response must not leak credential material
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("rejects an incomplete body", func(t *testing.T) {
		f := newFixture(t)
		w := f.doAuthed(http.MethodPost, "/api/v1/connections", map[string]string{"name": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWebhookEndpoints(t *testing.T) {
	t.Run("provisions a webhook and registers it with the provider", func(t *testing.T) {
		f := newFixture(t)
		w := f.doAuthed(http.MethodPost, "/api/v1/webhooks", rest.CreateWebhookRequest{
			AccountAddresses: []string{"Addr1"},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		require.Len(t, f.store.webhooks, 1)
		endpoint := f.store.webhooks[0]
		assert.Equal(t, "hel-1", endpoint.HeliusWebhookID)
		assert.NotEmpty(t, endpoint.WebhookID)

		require.Len(t, f.helius.createdURLs, 1)
		assert.Equal(t, "https://indexer.example.com/webhooks/"+endpoint.WebhookID, f.helius.createdURLs[0])
	})
}

func TestConfigurationEndpoints(t *testing.T) {
	t.Run("creates a configuration", func(t *testing.T) {
		f := newFixture(t)
		f.store.connections = []schema.DatabaseConnection{{ID: 5, UserID: 1}}

		w := f.doAuthed(http.MethodPost, "/api/v1/configurations", rest.CreateConfigurationRequest{
			WebhookEndpointID:    1,
			DatabaseConnectionID: 5,
			Category:             domain.CategoryTokenPrices,
			TargetTable:          "token_swaps",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, f.store.configs, 1)
		assert.True(t, f.store.configs[0].IsActive)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		f := newFixture(t)
		w := f.doAuthed(http.MethodPost, "/api/v1/configurations", rest.CreateConfigurationRequest{
			WebhookEndpointID:    1,
			DatabaseConnectionID: 5,
			Category:             domain.EventCategory("BOGUS"),
			TargetTable:          "t",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an unsafe target table name", func(t *testing.T) {
		f := newFixture(t)
		w := f.doAuthed(http.MethodPost, "/api/v1/configurations", rest.CreateConfigurationRequest{
			WebhookEndpointID:    1,
			DatabaseConnectionID: 5,
			Category:             domain.CategoryNFTPrices,
			TargetTable:          "t; DROP TABLE users--",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a configuration referencing a foreign connection", func(t *testing.T) {
		f := newFixture(t)
		w := f.doAuthed(http.MethodPost, "/api/v1/configurations", rest.CreateConfigurationRequest{
			WebhookEndpointID:    1,
			DatabaseConnectionID: 99,
			Category:             domain.CategoryNFTPrices,
			TargetTable:          "nft_sales",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
