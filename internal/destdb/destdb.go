// Package destdb connects the ingestion pipeline to user-registered
// destination databases. Connections are opened fresh per configuration per
// inbound request and must be closed on every code path; nothing here is
// pooled across requests.
package destdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockpipe/solindexer/internal/secrets"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

// Conn is the minimal surface the pipeline needs from a destination database.
type Conn interface {
	// Exec runs a parameterized statement
	Exec(ctx context.Context, sql string, args ...any) error
	// QueryBool runs a query expected to return a single boolean
	QueryBool(ctx context.Context, sql string, args ...any) (bool, error)
	// QueryStrings runs a query returning a single text column
	QueryStrings(ctx context.Context, sql string, args ...any) ([]string, error)
	// Close releases the connection
	Close()
}

// Factory produces a live connection for a stored DatabaseConnection record.
// The orchestrator receives a factory rather than a shared client so that no
// process-wide mutable connection state exists.
type Factory interface {
	Connect(ctx context.Context, conn *schema.DatabaseConnection) (Conn, error)
}

// PGFactory connects to destination PostgreSQL databases with pgx.
type PGFactory struct {
	box            *secrets.Box
	connectTimeout time.Duration
}

// NewPGFactory creates a connection factory. Passwords are decrypted with
// box immediately before connecting and never leave this package.
func NewPGFactory(box *secrets.Box, connectTimeout time.Duration) *PGFactory {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	return &PGFactory{box: box, connectTimeout: connectTimeout}
}

// Connect decrypts the stored password, opens a connection and verifies it
// with a ping bounded by the configured timeout.
func (f *PGFactory) Connect(ctx context.Context, conn *schema.DatabaseConnection) (Conn, error) {
	password, err := f.box.Decrypt(conn.EncryptedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt password for connection %d: %w", conn.ID, err)
	}

	dsn := buildDSN(conn, password, f.connectTimeout)

	ctx, cancel := context.WithTimeout(ctx, f.connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to destination database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping destination database: %w", err)
	}

	return &pgxConn{pool: pool}, nil
}

// buildDSN assembles a postgres URL for a destination connection.
func buildDSN(conn *schema.DatabaseConnection, password string, connectTimeout time.Duration) string {
	var dsn strings.Builder

	fmt.Fprintf(&dsn, "postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(conn.Username),
		url.QueryEscape(password),
		conn.Host,
		conn.Port,
		url.PathEscape(conn.DatabaseName))

	sslMode := "disable"
	if conn.UseSSL {
		sslMode = "require"
	}
	fmt.Fprintf(&dsn, "?sslmode=%s&connect_timeout=%d", sslMode, int(connectTimeout.Seconds()))

	if conn.SchemaName != "" && conn.SchemaName != "public" {
		fmt.Fprintf(&dsn, "&search_path=%s", url.QueryEscape(conn.SchemaName))
	}

	return dsn.String()
}

type pgxConn struct {
	pool *pgxpool.Pool
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) error {
	if _, err := c.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

func (c *pgxConn) QueryBool(ctx context.Context, sql string, args ...any) (bool, error) {
	var result bool
	if err := c.pool.QueryRow(ctx, sql, args...).Scan(&result); err != nil {
		return false, fmt.Errorf("query failed: %w", err)
	}
	return result, nil
}

func (c *pgxConn) QueryStrings(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows failed: %w", err)
	}
	return values, nil
}

func (c *pgxConn) Close() {
	c.pool.Close()
}

// Test opens a connection and runs a trivial query, returning a descriptive
// error on failure. Used by the dashboard's connection-test endpoint.
func (f *PGFactory) Test(ctx context.Context, conn *schema.DatabaseConnection) error {
	c, err := f.Connect(ctx, conn)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("connection test query failed: %w", err)
	}
	return nil
}
