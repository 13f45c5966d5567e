package rest

import (
	"time"

	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

// CreateConnectionRequest is the body for registering a destination database.
type CreateConnectionRequest struct {
	Name         string `json:"name" binding:"required"`
	Host         string `json:"host" binding:"required"`
	Port         int    `json:"port"`
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	DatabaseName string `json:"database_name" binding:"required"`
	SchemaName   string `json:"schema_name"`
	UseSSL       bool   `json:"use_ssl"`
}

// ConnectionResponse is a destination database connection without its
// credential material.
type ConnectionResponse struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	Username     string    `json:"username"`
	DatabaseName string    `json:"database_name"`
	SchemaName   string    `json:"schema_name"`
	UseSSL       bool      `json:"use_ssl"`
	CreatedAt    time.Time `json:"created_at"`
}

func toConnectionResponse(conn *schema.DatabaseConnection) ConnectionResponse {
	return ConnectionResponse{
		ID:           conn.ID,
		Name:         conn.Name,
		Host:         conn.Host,
		Port:         conn.Port,
		Username:     conn.Username,
		DatabaseName: conn.DatabaseName,
		SchemaName:   conn.SchemaName,
		UseSSL:       conn.UseSSL,
		CreatedAt:    conn.CreatedAt,
	}
}

// TestConnectionRequest is the body for the connection-test endpoint.
type TestConnectionRequest struct {
	Host         string `json:"host" binding:"required"`
	Port         int    `json:"port"`
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	DatabaseName string `json:"database_name" binding:"required"`
	UseSSL       bool   `json:"use_ssl"`
}

// CreateWebhookRequest is the body for provisioning a webhook endpoint.
type CreateWebhookRequest struct {
	AccountAddresses []string `json:"account_addresses" binding:"required"`
	TransactionTypes []string `json:"transaction_types"`
}

// WebhookResponse describes a registered webhook endpoint.
type WebhookResponse struct {
	ID          uint64     `json:"id"`
	WebhookID   string     `json:"webhook_id"`
	URL         string     `json:"url"`
	IsActive    bool       `json:"is_active"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toWebhookResponse(endpoint *schema.WebhookEndpoint) WebhookResponse {
	return WebhookResponse{
		ID:          endpoint.ID,
		WebhookID:   endpoint.WebhookID,
		URL:         endpoint.URL,
		IsActive:    endpoint.IsActive,
		LastError:   endpoint.LastError,
		LastErrorAt: endpoint.LastErrorAt,
		CreatedAt:   endpoint.CreatedAt,
	}
}

// CreateConfigurationRequest is the body for creating an indexing
// configuration.
type CreateConfigurationRequest struct {
	WebhookEndpointID    uint64               `json:"webhook_endpoint_id" binding:"required"`
	DatabaseConnectionID uint64               `json:"database_connection_id" binding:"required"`
	Category             domain.EventCategory `json:"category" binding:"required"`
	TargetTable          string               `json:"target_table" binding:"required"`
	FilterExpression     string               `json:"filter_expression"`
}

// ConfigurationResponse describes an indexing configuration.
type ConfigurationResponse struct {
	ID                   uint64               `json:"id"`
	WebhookEndpointID    uint64               `json:"webhook_endpoint_id"`
	DatabaseConnectionID uint64               `json:"database_connection_id"`
	Category             domain.EventCategory `json:"category"`
	TargetTable          string               `json:"target_table"`
	FilterExpression     string               `json:"filter_expression,omitempty"`
	IsActive             bool                 `json:"is_active"`
	CreatedAt            time.Time            `json:"created_at"`
}

func toConfigurationResponse(cfg *schema.IndexingConfiguration) ConfigurationResponse {
	return ConfigurationResponse{
		ID:                   cfg.ID,
		WebhookEndpointID:    cfg.WebhookEndpointID,
		DatabaseConnectionID: cfg.DatabaseConnectionID,
		Category:             cfg.Category,
		TargetTable:          cfg.TargetTable,
		FilterExpression:     cfg.FilterExpression,
		IsActive:             cfg.IsActive,
		CreatedAt:            cfg.CreatedAt,
	}
}

// SyncStatusResponse describes one audit-trail row.
type SyncStatusResponse struct {
	ID               uint64     `json:"id"`
	Status           string     `json:"status"`
	RecordsProcessed int        `json:"records_processed"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	Attempt          int        `json:"attempt,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toSyncStatusResponse(status *schema.SyncStatus) SyncStatusResponse {
	return SyncStatusResponse{
		ID:               status.ID,
		Status:           string(status.Status),
		RecordsProcessed: status.RecordsProcessed,
		ErrorMessage:     status.ErrorMessage,
		Attempt:          status.Attempt,
		StartedAt:        status.StartedAt,
		CompletedAt:      status.CompletedAt,
		CreatedAt:        status.CreatedAt,
	}
}
