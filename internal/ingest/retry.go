package ingest

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/logger"
)

// RetryPolicy bounds the retry loop around a transformer run.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy returns the standard policy: 3 attempts starting at 1s
// with a doubling backoff capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.Multiplier <= 1 {
		p.Multiplier = d.Multiplier
	}
	return p
}

// Executor runs transformer operations with bounded exponential-backoff
// retry, persisting a FAILED audit row for every failed attempt.
type Executor struct {
	recorder *Recorder
	policy   RetryPolicy
}

// NewExecutor creates a retry executor.
func NewExecutor(recorder *Recorder, policy RetryPolicy) *Executor {
	return &Executor{recorder: recorder, policy: policy.normalized()}
}

// Do runs op until it succeeds or the attempt budget is exhausted. Every
// failed attempt, including the final one, appends an attempt-tagged FAILED
// row before the executor decides whether to retry. On exhaustion the last
// cause is wrapped in a ProcessingError carrying the configuration and
// category; a final failure is never swallowed.
//
// The backoff schedule (initial interval, multiplier, cap) is owned by the
// backoff library; the explicit loop exists because each attempt must be
// numbered in the audit trail. Sleeps respect ctx cancellation.
func (e *Executor) Do(ctx context.Context, configID uint64, category domain.EventCategory, op func(ctx context.Context) (int, error)) (int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.InitialBackoff
	b.MaxInterval = e.policy.MaxBackoff
	b.Multiplier = e.policy.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // attempts are bounded by count, not wall time
	b.Reset()

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		records, err := op(ctx)
		if err == nil {
			return records, nil
		}
		lastErr = err

		e.recorder.FailedAttempt(ctx, configID, category, attempt, err)
		logger.Warn("ingestion attempt failed",
			zap.Uint64("configuration_id", configID),
			zap.String("category", category.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == e.policy.MaxAttempts {
			break
		}

		select {
		case <-time.After(b.NextBackOff()):
		case <-ctx.Done():
			return 0, &domain.ProcessingError{
				ConfigID: configID,
				Category: category,
				Attempts: attempt,
				Err:      ctx.Err(),
			}
		}
	}

	return 0, &domain.ProcessingError{
		ConfigID: configID,
		Category: category,
		Attempts: e.policy.MaxAttempts,
		Err:      lastErr,
	}
}
