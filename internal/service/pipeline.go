package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rooftop/solar-rewards-go/internal/audit"
	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/metrics"
	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/repository"
)

const outcomeWriteTimeout = 30 * time.Second

type PipelineDeps struct {
	Accounts    repository.AccountRepository
	Production  repository.ProductionRepository
	Rewards     repository.RewardRepository
	Fetcher     Fetcher
	Calculator  *RewardCalculator
	Distributor RewardDistributor
	Metrics     *metrics.Metrics
}

// Pipeline runs the daily fetch-and-reward pass over every active account.
type Pipeline struct {
	deps         PipelineDeps
	accountDelay time.Duration
	now          func() time.Time
	newPassID    func() string
}

func NewPipeline(deps PipelineDeps, accountDelay time.Duration) *Pipeline {
	return &Pipeline{
		deps:         deps,
		accountDelay: accountDelay,
		now:          time.Now,
		newPassID:    uuid.NewString,
	}
}

// RunDailyPass fetches, records and rewards each active account in store
// order. Per-account failures are recorded in the summary and never abort the
// pass; only listing the accounts is fatal. When ctx is cancelled the partial
// summary is returned together with ctx's error. Cancellation before
// distribution distributes nothing; cancellation during distribution still
// records every intent's outcome.
func (p *Pipeline) RunDailyPass(ctx context.Context) (*model.PassSummary, error) {
	summary := &model.PassSummary{
		PassID:      p.newPassID(),
		TotalReward: decimal.Zero,
		StartedAt:   p.now(),
	}
	logger := log.With().Str("passId", summary.PassID).Logger()

	accounts, err := p.deps.Accounts.ListActive(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list active accounts")
		return nil, apperrors.Database(err)
	}
	summary.AccountsTotal = len(accounts)

	audit.Log(ctx, audit.Event{
		Type:    audit.EventPassStarted,
		PassID:  summary.PassID,
		Details: map[string]interface{}{"accounts": len(accounts)},
	})

	if len(accounts) == 0 {
		logger.Info().Msg("no connected accounts found")
		summary.FinishedAt = p.now()
		return summary, nil
	}

	today := truncateToDate(summary.StartedAt)
	pacer := newPacer(p.accountDelay)
	var intents []model.RewardIntent

	for _, account := range accounts {
		if err := pacer.Wait(ctx); err != nil {
			return p.abort(ctx, summary, logger)
		}

		kwh, intent, err := p.processAccount(ctx, account, today, logger)
		if err != nil {
			if ctx.Err() != nil {
				return p.abort(ctx, summary, logger)
			}
			p.recordFailure(summary, account, err, logger)
			continue
		}
		summary.AccountsProcessed++
		summary.TotalKwh += kwh
		if intent != nil {
			intents = append(intents, *intent)
		}
	}

	for _, intent := range intents {
		summary.TotalReward = summary.TotalReward.Add(intent.Amount)
	}
	summary.RewardsQueued = len(intents)

	if len(intents) > 0 {
		p.deps.Distributor.Distribute(ctx, intents)
		for _, intent := range intents {
			switch intent.Status {
			case model.RewardStatusSuccess:
				summary.RewardsDistributed++
			default:
				summary.RewardsFailed++
			}
		}

		// Transfers may already have moved tokens, so the outcomes are written
		// even when ctx was cancelled during distribution.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomeWriteTimeout)
		err := p.deps.Rewards.AppendBatch(writeCtx, summary.PassID, intents, p.now())
		cancel()
		if err != nil {
			logger.Error().
				Err(err).
				Int("rewards", len(intents)).
				Msg("failed to record reward outcomes")
		}

		if ctx.Err() != nil {
			return p.abort(ctx, summary, logger)
		}
	}

	summary.FinishedAt = p.now()

	audit.Log(ctx, audit.Event{
		Type:   audit.EventPassCompleted,
		PassID: summary.PassID,
		Details: map[string]interface{}{
			"processed":   summary.AccountsProcessed,
			"failed":      summary.AccountsFailed,
			"totalKwh":    summary.TotalKwh,
			"distributed": summary.RewardsDistributed,
			"rewardFails": summary.RewardsFailed,
		},
	})

	logger.Info().
		Int("accounts", summary.AccountsTotal).
		Int("processed", summary.AccountsProcessed).
		Int("failed", summary.AccountsFailed).
		Float64("totalKwh", summary.TotalKwh).
		Str("totalReward", summary.TotalReward.String()).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("daily pass completed")

	return summary, nil
}

// processAccount returns the recorded kWh and, when the stored reward is
// positive, a pending intent.
func (p *Pipeline) processAccount(ctx context.Context, account model.Account, today time.Time, logger zerolog.Logger) (float64, *model.RewardIntent, error) {
	reading, err := p.deps.Fetcher.FetchWithRetry(ctx, account)
	if err != nil {
		return 0, nil, err
	}
	if reading.Kwh < 0 || math.IsNaN(reading.Kwh) || math.IsInf(reading.Kwh, 0) {
		return 0, nil, apperrors.ProviderError(account.Provider.DisplayName(), "invalid production reading")
	}

	amount := p.deps.Calculator.Calculate(reading.Kwh)
	fetchedAt := p.now()

	record, err := p.deps.Production.Upsert(ctx, model.UpsertProductionParams{
		ConnectionID: account.ID,
		Date:         today,
		DailyKwh:     reading.Kwh,
		RewardAmount: amount,
		FetchedAt:    fetchedAt,
	})
	if err != nil {
		return 0, nil, apperrors.Database(err)
	}

	if err := p.deps.Accounts.TouchLastSync(ctx, account.ID, fetchedAt); err != nil {
		logger.Warn().Err(err).Int64("accountId", account.ID).Msg("failed to update last sync")
	}

	p.deps.Metrics.AccountSucceeded(string(account.Provider), reading.Kwh)
	logger.Info().
		Int64("accountId", account.ID).
		Str("provider", string(account.Provider)).
		Float64("kwh", reading.Kwh).
		Bool("estimated", reading.Estimated).
		Str("reward", record.RewardAmount.String()).
		Msg("account processed")

	if !record.RewardAmount.IsPositive() {
		return reading.Kwh, nil, nil
	}

	return reading.Kwh, &model.RewardIntent{
		UserID:    account.UserID,
		AccountID: account.ID,
		Amount:    record.RewardAmount,
		Status:    model.RewardStatusPending,
		Metadata: &model.RewardMetadata{
			Reason:      model.DefaultRewardReason,
			KwhProduced: reading.Kwh,
			Date:        today.Format("2006-01-02"),
		},
	}, nil
}

func (p *Pipeline) recordFailure(summary *model.PassSummary, account model.Account, err error, logger zerolog.Logger) {
	code := apperrors.GetCode(err)
	message := err.Error()
	if appErr, ok := apperrors.AsAppError(err); ok {
		message = appErr.Message
	}

	summary.AccountsFailed++
	summary.Failures = append(summary.Failures, model.AccountFailure{
		AccountID: account.ID,
		UserID:    account.UserID,
		Provider:  account.Provider,
		Code:      string(code),
		Message:   message,
	})
	p.deps.Metrics.AccountFailed(string(account.Provider), string(code))

	logger.Warn().
		Err(err).
		Int64("accountId", account.ID).
		Str("provider", string(account.Provider)).
		Str("code", string(code)).
		Msg("account failed")
}

func (p *Pipeline) abort(ctx context.Context, summary *model.PassSummary, logger zerolog.Logger) (*model.PassSummary, error) {
	summary.FinishedAt = p.now()
	logger.Warn().
		Err(ctx.Err()).
		Int("processed", summary.AccountsProcessed).
		Int("failed", summary.AccountsFailed).
		Msg("daily pass cancelled")
	return summary, ctx.Err()
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
