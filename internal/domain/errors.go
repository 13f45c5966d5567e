package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSignature is returned when an inbound webhook payload fails
	// signature verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrWebhookNotFound is returned when no webhook endpoint matches the
	// inbound webhook ID
	ErrWebhookNotFound = errors.New("webhook endpoint not found")

	// ErrSecretNotConfigured is returned when the shared webhook secret is
	// missing from the server configuration
	ErrSecretNotConfigured = errors.New("webhook secret not configured")

	// ErrConfigurationNotFound is returned when an indexing configuration
	// does not exist
	ErrConfigurationNotFound = errors.New("indexing configuration not found")

	// ErrConnectionNotFound is returned when a database connection record
	// does not exist
	ErrConnectionNotFound = errors.New("database connection not found")
)

// SchemaError reports a structural problem with a destination table: a
// failed DDL statement, an invalid identifier, or a pre-existing table
// missing required columns. Schema errors are never retried.
type SchemaError struct {
	Table   string
	Missing []string
	Err     error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema validation failed for table %s: missing required columns: %s",
			e.Table, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("schema validation failed for table %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying cause, if any.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ProcessingError is the terminal per-configuration failure raised once the
// retry budget is exhausted. It carries the configuration and category so
// operators can trace the failure back through SyncStatus rows.
type ProcessingError struct {
	ConfigID uint64
	Category EventCategory
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed for configuration %d (%s) after %d attempts: %v",
		e.ConfigID, e.Category, e.Attempts, e.Err)
}

// Unwrap returns the last underlying cause.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}
