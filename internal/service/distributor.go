package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rooftop/solar-rewards-go/internal/config"
	"github.com/rooftop/solar-rewards-go/internal/metrics"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

// RewardDistributor attempts every intent once and reports per-intent outcomes.
type RewardDistributor interface {
	Distribute(ctx context.Context, intents []model.RewardIntent) []model.RewardIntent
}

type Distributor struct {
	client  TokenClient
	delay   time.Duration
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewDistributor(client TokenClient, delay, timeout time.Duration, m *metrics.Metrics) *Distributor {
	return &Distributor{client: client, delay: delay, timeout: timeout, metrics: m}
}

// Distribute mutates intents in place and returns the same slice. Every intent
// ends success with a tx hash or failed without one; one intent's failure never
// affects another, and nothing is retried.
func (d *Distributor) Distribute(ctx context.Context, intents []model.RewardIntent) []model.RewardIntent {
	limiter := newPacer(d.delay)

	for i := range intents {
		intent := &intents[i]
		intent.TxHash = nil

		if err := limiter.Wait(ctx); err != nil {
			intent.Status = model.RewardStatusFailed
			d.metrics.RewardDistributed(string(intent.Status))
			continue
		}

		hash, err := d.transfer(ctx, *intent)
		if err != nil {
			intent.Status = model.RewardStatusFailed
			log.Warn().
				Err(err).
				Str("userId", intent.UserID).
				Int64("accountId", intent.AccountID).
				Str("amount", intent.Amount.String()).
				Msg("reward distribution failed")
		} else {
			intent.Status = model.RewardStatusSuccess
			intent.TxHash = &hash
			log.Info().
				Str("userId", intent.UserID).
				Int64("accountId", intent.AccountID).
				Str("amount", intent.Amount.String()).
				Str("txHash", hash).
				Msg("reward distributed")
		}
		d.metrics.RewardDistributed(string(intent.Status))
	}

	return intents
}

func (d *Distributor) transfer(ctx context.Context, intent model.RewardIntent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return d.client.Transfer(ctx, model.TransferRequest{
		Recipient: intent.UserID,
		Amount:    intent.Amount,
		Memo:      intent.Memo(),
	})
}

// Status probes the distribution endpoint. It never affects distribution.
func (d *Distributor) Status(ctx context.Context) model.NetworkStatus {
	ctx, cancel := context.WithTimeout(ctx, config.DistributionPingTimeout)
	defer cancel()

	start := time.Now()
	if err := d.client.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("distribution endpoint unreachable")
		return model.NetworkStatus{Status: model.NetworkOffline}
	}

	latency := time.Since(start).Milliseconds()
	return model.NetworkStatus{Status: model.NetworkOnline, LatencyMs: &latency}
}

// newPacer returns a limiter that lets the first call through immediately and
// spaces later calls by delay. A zero delay disables pacing.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
