package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blockpipe/solindexer/internal/api/middleware"
	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/helius"
	"github.com/blockpipe/solindexer/internal/ingest"
	"github.com/blockpipe/solindexer/internal/logger"
	"github.com/blockpipe/solindexer/internal/secrets"
	"github.com/blockpipe/solindexer/internal/store"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

// Handler holds dependencies for the REST API handlers
type Handler struct {
	store         store.Store
	helius        helius.Client
	box           *secrets.Box
	factory       *destdb.PGFactory
	orchestrator  *ingest.Orchestrator
	publicBaseURL string
}

// NewHandler creates a REST API handler
func NewHandler(
	s store.Store,
	heliusClient helius.Client,
	box *secrets.Box,
	factory *destdb.PGFactory,
	orchestrator *ingest.Orchestrator,
	publicBaseURL string,
) *Handler {
	return &Handler{
		store:         s,
		helius:        heliusClient,
		box:           box,
		factory:       factory,
		orchestrator:  orchestrator,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IngestWebhook handles POST /webhooks/:webhook_id - the inbound delivery
// endpoint called by the event provider. Authentication is the shared-secret
// signature on the payload, not the dashboard auth stack.
func (h *Handler) IngestWebhook(c *gin.Context) {
	webhookID := c.Param("webhook_id")

	rawBody, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, "failed to read request body")
		return
	}

	signature := c.GetHeader(helius.SignatureHeader)

	err = h.orchestrator.Process(c.Request.Context(), webhookID, signature, rawBody)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, domain.ErrWebhookNotFound):
		respondNotFound(c, "webhook not found")
	case errors.Is(err, domain.ErrInvalidSignature):
		respondUnauthorized(c, "invalid signature")
	case errors.Is(err, domain.ErrSecretNotConfigured):
		respondInternalError(c, err, "webhook secret not configured", zap.String("webhook_id", webhookID))
	default:
		respondInternalError(c, err, "failed to process webhook delivery", zap.String("webhook_id", webhookID))
	}
}

// currentUser resolves the authenticated subject to a user record, creating
// one on first contact.
func (h *Handler) currentUser(c *gin.Context) (*schema.User, error) {
	subject := c.GetString(middleware.AuthSubjectKey)
	if subject == "" {
		return nil, errors.New("no authenticated subject on request")
	}

	user, err := h.store.GetUserByExternalID(c.Request.Context(), subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &schema.User{ExternalID: subject}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	logger.Info("registered new user", zap.String("external_id", subject))
	return user, nil
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		respondBadRequest(c, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// CreateConnection handles POST /api/v1/connections
func (h *Handler) CreateConnection(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err.Error())
		return
	}
	if req.Port == 0 {
		req.Port = 5432
	}
	if req.SchemaName == "" {
		req.SchemaName = "public"
	}

	encrypted, err := h.box.Encrypt(req.Password)
	if err != nil {
		respondInternalError(c, err, "failed to encrypt password")
		return
	}

	conn := &schema.DatabaseConnection{
		UserID:            user.ID,
		Name:              req.Name,
		Host:              req.Host,
		Port:              req.Port,
		Username:          req.Username,
		EncryptedPassword: encrypted,
		DatabaseName:      req.DatabaseName,
		SchemaName:        req.SchemaName,
		UseSSL:            req.UseSSL,
	}
	if err := h.store.CreateDatabaseConnection(c.Request.Context(), conn); err != nil {
		respondInternalError(c, err, "failed to create connection")
		return
	}

	c.JSON(http.StatusCreated, toConnectionResponse(conn))
}

// ListConnections handles GET /api/v1/connections
func (h *Handler) ListConnections(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	conns, err := h.store.ListDatabaseConnections(c.Request.Context(), user.ID)
	if err != nil {
		respondInternalError(c, err, "failed to list connections")
		return
	}

	responses := make([]ConnectionResponse, 0, len(conns))
	for i := range conns {
		responses = append(responses, toConnectionResponse(&conns[i]))
	}
	c.JSON(http.StatusOK, gin.H{"connections": responses})
}

// DeleteConnection handles DELETE /api/v1/connections/:id
func (h *Handler) DeleteConnection(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteDatabaseConnection(c.Request.Context(), user.ID, id); err != nil {
		if errors.Is(err, domain.ErrConnectionNotFound) {
			respondNotFound(c, "connection not found")
			return
		}
		respondInternalError(c, err, "failed to delete connection")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TestConnection handles POST /api/v1/connections/test - verifies
// reachability and credentials without persisting anything.
func (h *Handler) TestConnection(c *gin.Context) {
	var req TestConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err.Error())
		return
	}
	if req.Port == 0 {
		req.Port = 5432
	}

	// The factory expects an encrypted password; seal the transient one
	encrypted, err := h.box.Encrypt(req.Password)
	if err != nil {
		respondInternalError(c, err, "failed to encrypt password")
		return
	}

	conn := &schema.DatabaseConnection{
		Host:              req.Host,
		Port:              req.Port,
		Username:          req.Username,
		EncryptedPassword: encrypted,
		DatabaseName:      req.DatabaseName,
		UseSSL:            req.UseSSL,
	}

	if err := h.factory.Test(c.Request.Context(), conn); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateWebhook handles POST /api/v1/webhooks - provisions an inbound
// endpoint and registers it with the event provider.
func (h *Handler) CreateWebhook(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err.Error())
		return
	}
	if len(req.TransactionTypes) == 0 {
		req.TransactionTypes = helius.DefaultTransactionTypes()
	}

	webhookID := uuid.New().String()
	webhookURL := fmt.Sprintf("%s/webhooks/%s", h.publicBaseURL, webhookID)

	heliusID, err := h.helius.CreateWebhook(c.Request.Context(), webhookURL, req.AccountAddresses, req.TransactionTypes)
	if err != nil {
		respondInternalError(c, err, "failed to register webhook with provider")
		return
	}

	endpoint := &schema.WebhookEndpoint{
		UserID:          user.ID,
		WebhookID:       webhookID,
		HeliusWebhookID: heliusID,
		URL:             webhookURL,
		IsActive:        true,
	}
	if err := h.store.CreateWebhookEndpoint(c.Request.Context(), endpoint); err != nil {
		// Best effort cleanup of the provider-side webhook
		if derr := h.helius.DeleteWebhook(c.Request.Context(), heliusID); derr != nil {
			logger.Error(derr, zap.String("helius_webhook_id", heliusID))
		}
		respondInternalError(c, err, "failed to persist webhook endpoint")
		return
	}

	c.JSON(http.StatusCreated, toWebhookResponse(endpoint))
}

// ListWebhooks handles GET /api/v1/webhooks
func (h *Handler) ListWebhooks(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	endpoints, err := h.store.ListWebhookEndpoints(c.Request.Context(), user.ID)
	if err != nil {
		respondInternalError(c, err, "failed to list webhooks")
		return
	}

	responses := make([]WebhookResponse, 0, len(endpoints))
	for i := range endpoints {
		responses = append(responses, toWebhookResponse(&endpoints[i]))
	}
	c.JSON(http.StatusOK, gin.H{"webhooks": responses})
}

// DeleteWebhook handles DELETE /api/v1/webhooks/:id - removes the endpoint
// and deregisters the provider-side webhook.
func (h *Handler) DeleteWebhook(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	endpoint, err := h.store.DeleteWebhookEndpoint(c.Request.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrWebhookNotFound) {
			respondNotFound(c, "webhook not found")
			return
		}
		respondInternalError(c, err, "failed to delete webhook")
		return
	}

	if endpoint.HeliusWebhookID != "" {
		if err := h.helius.DeleteWebhook(c.Request.Context(), endpoint.HeliusWebhookID); err != nil {
			// The local record is gone; log and move on
			logger.Error(err, zap.String("helius_webhook_id", endpoint.HeliusWebhookID))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateConfiguration handles POST /api/v1/configurations
func (h *Handler) CreateConfiguration(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	var req CreateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err.Error())
		return
	}
	if !req.Category.Valid() {
		respondBadRequest(c, fmt.Sprintf("unknown category %q", req.Category))
		return
	}
	if err := ingest.ValidateTableName(req.TargetTable); err != nil {
		respondBadRequest(c, "invalid target table", err.Error())
		return
	}

	// Both referenced resources must belong to the caller
	if _, err := h.store.GetDatabaseConnection(c.Request.Context(), user.ID, req.DatabaseConnectionID); err != nil {
		if errors.Is(err, domain.ErrConnectionNotFound) {
			respondNotFound(c, "connection not found")
			return
		}
		respondInternalError(c, err, "failed to look up connection")
		return
	}

	cfg := &schema.IndexingConfiguration{
		UserID:               user.ID,
		WebhookEndpointID:    req.WebhookEndpointID,
		DatabaseConnectionID: req.DatabaseConnectionID,
		Category:             req.Category,
		TargetTable:          req.TargetTable,
		FilterExpression:     req.FilterExpression,
		IsActive:             true,
	}
	if err := h.store.CreateIndexingConfiguration(c.Request.Context(), cfg); err != nil {
		respondInternalError(c, err, "failed to create configuration")
		return
	}

	c.JSON(http.StatusCreated, toConfigurationResponse(cfg))
}

// ListConfigurations handles GET /api/v1/configurations
func (h *Handler) ListConfigurations(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	cfgs, err := h.store.ListIndexingConfigurations(c.Request.Context(), user.ID)
	if err != nil {
		respondInternalError(c, err, "failed to list configurations")
		return
	}

	responses := make([]ConfigurationResponse, 0, len(cfgs))
	for i := range cfgs {
		responses = append(responses, toConfigurationResponse(&cfgs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"configurations": responses})
}

// ListSyncStatuses handles GET /api/v1/configurations/:id/sync-statuses
func (h *Handler) ListSyncStatuses(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		respondInternalError(c, err, "failed to resolve user")
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	// Ownership check before exposing the audit trail
	if _, err := h.store.GetIndexingConfiguration(c.Request.Context(), user.ID, id); err != nil {
		if errors.Is(err, domain.ErrConfigurationNotFound) {
			respondNotFound(c, "configuration not found")
			return
		}
		respondInternalError(c, err, "failed to look up configuration")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			respondBadRequest(c, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	statuses, err := h.store.ListSyncStatuses(c.Request.Context(), id, limit)
	if err != nil {
		respondInternalError(c, err, "failed to list sync statuses")
		return
	}

	responses := make([]SyncStatusResponse, 0, len(statuses))
	for i := range statuses {
		responses = append(responses, toSyncStatusResponse(&statuses[i]))
	}
	c.JSON(http.StatusOK, gin.H{"sync_statuses": responses})
}
