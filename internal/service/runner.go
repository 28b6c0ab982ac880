package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rooftop/solar-rewards-go/internal/audit"
	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/metrics"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

const lockReleaseTimeout = 5 * time.Second

// PassLock guarantees a single running pass across replicas.
type PassLock interface {
	Acquire(ctx context.Context) (token string, acquired bool, err error)
	Release(ctx context.Context, token string) error
}

// SummaryStore keeps the summary of the last finished pass.
type SummaryStore interface {
	SaveLastSummary(ctx context.Context, summary *model.PassSummary) error
	LastSummary(ctx context.Context) (*model.PassSummary, error)
}

// DailyPass is satisfied by *Pipeline.
type DailyPass interface {
	RunDailyPass(ctx context.Context) (*model.PassSummary, error)
}

// PassRunner wraps the pipeline with the distributed lock, the summary cache
// and pass metrics. Both the HTTP trigger and the scheduled job go through it.
type PassRunner struct {
	pipeline DailyPass
	lock     PassLock
	store    SummaryStore
	metrics  *metrics.Metrics
}

func NewPassRunner(pipeline DailyPass, lock PassLock, store SummaryStore, m *metrics.Metrics) *PassRunner {
	return &PassRunner{pipeline: pipeline, lock: lock, store: store, metrics: m}
}

// Run fails with CONFLICT when another pass holds the lock.
func (r *PassRunner) Run(ctx context.Context) (*model.PassSummary, error) {
	token, acquired, err := r.lock.Acquire(ctx)
	if err != nil {
		return nil, apperrors.External("pass lock", err)
	}
	if !acquired {
		audit.Log(ctx, audit.Event{Type: audit.EventPassRejected})
		return nil, apperrors.Conflict("A daily pass is already running")
	}
	defer r.release(ctx, token)

	start := time.Now()
	summary, err := r.pipeline.RunDailyPass(ctx)

	result := "completed"
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		result = "cancelled"
	case err != nil:
		result = "failed"
	}
	r.metrics.PassFinished(result, time.Since(start), time.Now())

	if summary != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		if saveErr := r.store.SaveLastSummary(saveCtx, summary); saveErr != nil {
			log.Warn().Err(saveErr).Str("passId", summary.PassID).Msg("failed to cache pass summary")
		}
		cancel()
	}

	return summary, err
}

func (r *PassRunner) LastSummary(ctx context.Context) (*model.PassSummary, error) {
	summary, err := r.store.LastSummary(ctx)
	if err != nil {
		return nil, apperrors.External("pass summary cache", err)
	}
	return summary, nil
}

func (r *PassRunner) release(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()
	if err := r.lock.Release(ctx, token); err != nil {
		log.Warn().Err(err).Msg("failed to release pass lock")
	}
}
