package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/helius"
	"github.com/blockpipe/solindexer/internal/logger"
	"github.com/blockpipe/solindexer/internal/store"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

// Orchestrator drives the ingestion pipeline for one inbound webhook
// delivery: verify the signature once, then for every configuration bound
// to the webhook open a fresh destination connection, reconcile the schema,
// run the category transformer under retry, and record the terminal
// outcome. Failures are isolated per configuration; one configuration's
// failure never prevents its siblings from processing.
type Orchestrator struct {
	store    store.Store
	factory  destdb.Factory
	recorder *Recorder
	executor *Executor
	secret   string
}

// NewOrchestrator creates an ingestion orchestrator. The destination
// connection factory is injected so no process-wide connection state exists.
func NewOrchestrator(s store.Store, factory destdb.Factory, recorder *Recorder, executor *Executor, secret string) *Orchestrator {
	return &Orchestrator{
		store:    s,
		factory:  factory,
		recorder: recorder,
		executor: executor,
		secret:   secret,
	}
}

// Process handles one inbound delivery. It returns
// domain.ErrWebhookNotFound for an unknown webhook ID,
// domain.ErrSecretNotConfigured when the server has no shared secret, and
// domain.ErrInvalidSignature when verification fails; any of these abort
// the whole request before per-configuration processing. Once the
// configuration loop starts, Process returns nil regardless of individual
// outcomes — operators observe failures through SyncStatus rows and
// deactivated webhooks, not the HTTP response.
func (o *Orchestrator) Process(ctx context.Context, webhookID, signatureHeader string, rawBody []byte) error {
	endpoint, err := o.store.GetWebhookEndpointByWebhookID(ctx, webhookID)
	if err != nil {
		return fmt.Errorf("failed to look up webhook endpoint: %w", err)
	}
	if endpoint == nil {
		return domain.ErrWebhookNotFound
	}

	if o.secret == "" {
		return domain.ErrSecretNotConfigured
	}
	if !VerifySignature(signatureHeader, rawBody, o.secret) {
		return domain.ErrInvalidSignature
	}

	var batch helius.EventBatch
	if err := json.Unmarshal(rawBody, &batch); err != nil {
		return fmt.Errorf("failed to decode event batch: %w", err)
	}

	for i := range endpoint.Configurations {
		cfg := &endpoint.Configurations[i]
		if !cfg.IsActive {
			logger.Debug("skipping inactive configuration", zap.Uint64("configuration_id", cfg.ID))
			continue
		}
		o.processConfiguration(ctx, endpoint, cfg, batch.Transactions)
	}

	return nil
}

// processConfiguration runs the pipeline for a single configuration. All
// errors are contained here: they are recorded, the webhook is deactivated,
// and the caller moves on to the next configuration.
func (o *Orchestrator) processConfiguration(ctx context.Context, endpoint *schema.WebhookEndpoint, cfg *schema.IndexingConfiguration, txs []helius.Transaction) {
	o.recorder.Processing(ctx, cfg.ID)

	conn, err := o.factory.Connect(ctx, &cfg.DatabaseConnection)
	if err != nil {
		o.failConfiguration(ctx, endpoint, cfg, fmt.Errorf("destination connection failed: %w", err))
		return
	}
	// The destination connection is released on every exit path
	defer conn.Close()

	if err := Reconcile(ctx, conn, cfg.TargetTable, cfg.Category); err != nil {
		// Structural problems are not transient; no retry
		o.failConfiguration(ctx, endpoint, cfg, err)
		return
	}

	transformer, err := TransformerFor(cfg.Category)
	if err != nil {
		o.failConfiguration(ctx, endpoint, cfg, err)
		return
	}

	records, err := o.executor.Do(ctx, cfg.ID, cfg.Category, func(ctx context.Context) (int, error) {
		return transformer.Transform(ctx, conn, cfg.TargetTable, txs)
	})
	if err != nil {
		o.failConfiguration(ctx, endpoint, cfg, err)
		return
	}

	o.recorder.Completed(ctx, cfg.ID, records, endpoint.WebhookID)
	logger.Info("configuration processed",
		zap.Uint64("configuration_id", cfg.ID),
		zap.String("category", cfg.Category.String()),
		zap.Int("records", records),
	)
}

// failConfiguration records the terminal FAILED outcome and deactivates the
// webhook so the failure is visible to operators.
func (o *Orchestrator) failConfiguration(ctx context.Context, endpoint *schema.WebhookEndpoint, cfg *schema.IndexingConfiguration, cause error) {
	logger.Error(cause,
		zap.Uint64("configuration_id", cfg.ID),
		zap.String("category", cfg.Category.String()),
		zap.String("webhook_id", endpoint.WebhookID),
	)

	o.recorder.Failed(ctx, cfg.ID, cause)

	if err := o.store.DeactivateWebhookEndpoint(ctx, endpoint.ID, cause.Error()); err != nil {
		logger.Error(err, zap.Uint64("webhook_endpoint_id", endpoint.ID))
	}
}
