package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/blockpipe/solindexer/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler *Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// Inbound delivery endpoint called by the event provider. Authenticated
	// by the payload signature, not by the dashboard auth stack.
	router.POST("/webhooks/:webhook_id", handler.IngestWebhook)

	// Dashboard API (requires authentication)
	v1 := router.Group("/api/v1", middleware.Auth(authCfg))
	{
		// Destination database connections
		v1.POST("/connections", handler.CreateConnection)
		v1.GET("/connections", handler.ListConnections)
		v1.DELETE("/connections/:id", handler.DeleteConnection)
		v1.POST("/connections/test", handler.TestConnection)

		// Webhook endpoint provisioning
		v1.POST("/webhooks", handler.CreateWebhook)
		v1.GET("/webhooks", handler.ListWebhooks)
		v1.DELETE("/webhooks/:id", handler.DeleteWebhook)

		// Indexing configurations and their audit trail
		v1.POST("/configurations", handler.CreateConfiguration)
		v1.GET("/configurations", handler.ListConfigurations)
		v1.GET("/configurations/:id/sync-statuses", handler.ListSyncStatuses)
	}
}
