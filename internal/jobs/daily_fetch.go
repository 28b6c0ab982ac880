package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

// PassRunner is satisfied by *service.PassRunner.
type PassRunner interface {
	Run(ctx context.Context) (*model.PassSummary, error)
}

// DailyFetchJob triggers the daily pass on a fixed interval. The first pass
// runs one interval after Start.
type DailyFetchJob struct {
	runner   PassRunner
	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDailyFetchJob(runner PassRunner, interval, timeout time.Duration) *DailyFetchJob {
	ctx, cancel := context.WithCancel(context.Background())
	return &DailyFetchJob{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (j *DailyFetchJob) Start() {
	j.wg.Add(1)
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("daily fetch job started")
}

// Stop aborts an in-flight pass and waits for the job goroutine to exit.
func (j *DailyFetchJob) Stop() {
	j.cancel()
	j.wg.Wait()
	log.Info().Msg("daily fetch job stopped")
}

func (j *DailyFetchJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			if j.ctx.Err() != nil {
				return
			}
			j.runPass()
		}
	}
}

func (j *DailyFetchJob) runPass() {
	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	summary, err := j.runner.Run(ctx)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeConflict):
		log.Info().Msg("scheduled pass skipped: another pass is running")
	case err != nil:
		log.Error().Err(err).Msg("scheduled pass failed")
	default:
		log.Info().
			Str("passId", summary.PassID).
			Int("processed", summary.AccountsProcessed).
			Int("failed", summary.AccountsFailed).
			Msg("scheduled pass completed")
	}
}
