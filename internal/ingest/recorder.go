package ingest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/logger"
	"github.com/blockpipe/solindexer/internal/store"
	"github.com/blockpipe/solindexer/internal/store/schema"
)

// Recorder appends rows to the sync_statuses audit trail. It is the only
// component that writes SyncStatus state; rows are never updated in place.
// Audit writes are best-effort: a failed write is logged but never fails
// the ingestion attempt it describes.
type Recorder struct {
	store store.Store
}

// NewRecorder creates a Recorder backed by the application store.
func NewRecorder(s store.Store) *Recorder {
	return &Recorder{store: s}
}

// Processing appends a PROCESSING row marking the start of an ingestion
// attempt for a configuration.
func (r *Recorder) Processing(ctx context.Context, configID uint64) {
	now := time.Now()
	r.append(ctx, &schema.SyncStatus{
		IndexingConfigurationID: configID,
		Status:                  schema.SyncStateProcessing,
		StartedAt:               &now,
	})
}

// Completed appends the terminal COMPLETED row with the final record count
// and the inbound webhook identity.
func (r *Recorder) Completed(ctx context.Context, configID uint64, records int, webhookID string) {
	now := time.Now()
	r.append(ctx, &schema.SyncStatus{
		IndexingConfigurationID: configID,
		Status:                  schema.SyncStateCompleted,
		RecordsProcessed:        records,
		CompletedAt:             &now,
		Metadata:                metadata(map[string]any{"webhook_id": webhookID}),
	})
}

// Failed appends the terminal FAILED row for a configuration's ingestion
// attempt.
func (r *Recorder) Failed(ctx context.Context, configID uint64, cause error) {
	now := time.Now()
	r.append(ctx, &schema.SyncStatus{
		IndexingConfigurationID: configID,
		Status:                  schema.SyncStateFailed,
		ErrorMessage:            cause.Error(),
		CompletedAt:             &now,
	})
}

// FailedAttempt appends a FAILED row for one retry attempt. Unlike Failed
// this is not a terminal record; the retry executor calls it once per
// failed attempt, including the last.
func (r *Recorder) FailedAttempt(ctx context.Context, configID uint64, category domain.EventCategory, attempt int, cause error) {
	r.append(ctx, &schema.SyncStatus{
		IndexingConfigurationID: configID,
		Status:                  schema.SyncStateFailed,
		ErrorMessage:            cause.Error(),
		Attempt:                 attempt,
		Metadata: metadata(map[string]any{
			"category": category.String(),
			"attempt":  attempt,
		}),
	})
}

func (r *Recorder) append(ctx context.Context, status *schema.SyncStatus) {
	if err := r.store.CreateSyncStatus(ctx, status); err != nil {
		logger.Error(err,
			zap.Uint64("configuration_id", status.IndexingConfigurationID),
			zap.String("status", string(status.Status)),
		)
	}
}

func metadata(m map[string]any) datatypes.JSON {
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
