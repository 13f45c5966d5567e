package ingest_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

// execCall records one Exec invocation against a fake destination.
type execCall struct {
	SQL  string
	Args []any
}

// fakeConn is a scriptable in-memory destdb.Conn.
type fakeConn struct {
	mu sync.Mutex

	// scripted responses
	existsResult  bool
	existsErr     error
	columnsResult []string
	columnsErr    error
	execErr       error

	// execErrContains limits execErr to statements containing the substring
	execErrContains string

	execCalls []execCall
	closed    bool
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.execErr != nil && (c.execErrContains == "" || strings.Contains(sql, c.execErrContains)) {
		return c.execErr
	}
	c.execCalls = append(c.execCalls, execCall{SQL: sql, Args: args})
	return nil
}

func (c *fakeConn) QueryBool(_ context.Context, sql string, _ ...any) (bool, error) {
	if c.existsErr != nil {
		return false, c.existsErr
	}
	return c.existsResult, nil
}

func (c *fakeConn) QueryStrings(_ context.Context, _ string, _ ...any) ([]string, error) {
	if c.columnsErr != nil {
		return nil, c.columnsErr
	}
	return c.columnsResult, nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// ddlCalls returns the executed statements that are not INSERTs.
func (c *fakeConn) ddlCalls() []execCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ddl []execCall
	for _, call := range c.execCalls {
		if !strings.HasPrefix(strings.TrimSpace(call.SQL), "INSERT") {
			ddl = append(ddl, call)
		}
	}
	return ddl
}

// insertCalls returns the executed INSERT statements.
func (c *fakeConn) insertCalls() []execCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var inserts []execCall
	for _, call := range c.execCalls {
		if strings.HasPrefix(strings.TrimSpace(call.SQL), "INSERT") {
			inserts = append(inserts, call)
		}
	}
	return inserts
}

// fakeStore implements store.Store in memory for pipeline tests. Only the
// methods the ingestion path touches have behavior; the dashboard CRUD
// methods are unused here.
type fakeStore struct {
	mu sync.Mutex

	endpoints     map[string]*schema.WebhookEndpoint
	statuses      []schema.SyncStatus
	deactivations map[uint64]string

	createSyncErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		endpoints:     make(map[string]*schema.WebhookEndpoint),
		deactivations: make(map[uint64]string),
	}
}

func (s *fakeStore) GetUserByExternalID(context.Context, string) (*schema.User, error) {
	return nil, nil
}

func (s *fakeStore) CreateUser(context.Context, *schema.User) error { return nil }

func (s *fakeStore) CreateDatabaseConnection(context.Context, *schema.DatabaseConnection) error {
	return nil
}

func (s *fakeStore) GetDatabaseConnection(context.Context, uint64, uint64) (*schema.DatabaseConnection, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) ListDatabaseConnections(context.Context, uint64) ([]schema.DatabaseConnection, error) {
	return nil, nil
}

func (s *fakeStore) DeleteDatabaseConnection(context.Context, uint64, uint64) error { return nil }

func (s *fakeStore) CreateWebhookEndpoint(context.Context, *schema.WebhookEndpoint) error {
	return nil
}

func (s *fakeStore) GetWebhookEndpointByWebhookID(_ context.Context, webhookID string) (*schema.WebhookEndpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoints[webhookID], nil
}

func (s *fakeStore) ListWebhookEndpoints(context.Context, uint64) ([]schema.WebhookEndpoint, error) {
	return nil, nil
}

func (s *fakeStore) DeleteWebhookEndpoint(context.Context, uint64, uint64) (*schema.WebhookEndpoint, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) DeactivateWebhookEndpoint(_ context.Context, id uint64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactivations[id] = reason
	return nil
}

func (s *fakeStore) CreateIndexingConfiguration(context.Context, *schema.IndexingConfiguration) error {
	return nil
}

func (s *fakeStore) GetIndexingConfiguration(context.Context, uint64, uint64) (*schema.IndexingConfiguration, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) ListIndexingConfigurations(context.Context, uint64) ([]schema.IndexingConfiguration, error) {
	return nil, nil
}

func (s *fakeStore) CreateSyncStatus(_ context.Context, status *schema.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createSyncErr != nil {
		return s.createSyncErr
	}
	s.statuses = append(s.statuses, *status)
	return nil
}

func (s *fakeStore) ListSyncStatuses(_ context.Context, configID uint64, limit int) ([]schema.SyncStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schema.SyncStatus
	for i := len(s.statuses) - 1; i >= 0 && len(out) < limit; i-- {
		if s.statuses[i].IndexingConfigurationID == configID {
			out = append(out, s.statuses[i])
		}
	}
	return out, nil
}

// statusesFor returns the audit rows for a configuration in append order.
func (s *fakeStore) statusesFor(configID uint64) []schema.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schema.SyncStatus
	for _, status := range s.statuses {
		if status.IndexingConfigurationID == configID {
			out = append(out, status)
		}
	}
	return out
}

// fakeFactory hands out pre-built connections keyed by connection record ID.
type fakeFactory struct {
	mu    sync.Mutex
	conns map[uint64]*fakeConn
	errs  map[uint64]error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		conns: make(map[uint64]*fakeConn),
		errs:  make(map[uint64]error),
	}
}

func (f *fakeFactory) Connect(_ context.Context, conn *schema.DatabaseConnection) (destdb.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[conn.ID]; err != nil {
		return nil, err
	}
	c, ok := f.conns[conn.ID]
	if !ok {
		c = &fakeConn{}
		f.conns[conn.ID] = c
	}
	return c, nil
}
