package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rooftop/solar-rewards-go/internal/audit"
	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/metrics"
	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/provider"
	"github.com/rooftop/solar-rewards-go/internal/repository"
)

// Fetcher produces one reading per account.
type Fetcher interface {
	FetchWithRetry(ctx context.Context, account model.Account) (*model.ProductionReading, error)
}

// TokenStore persists a refreshed access token.
type TokenStore interface {
	UpdateAccessToken(ctx context.Context, id int64, accessToken string) error
}

var _ TokenStore = (repository.AccountRepository)(nil)

type ProductionFetcher struct {
	resolver provider.Resolver
	tokens   TokenStore
	metrics  *metrics.Metrics
}

// NewProductionFetcher accepts a nil tokens store, in which case refreshed
// tokens live only for the retry.
func NewProductionFetcher(resolver provider.Resolver, tokens TokenStore, m *metrics.Metrics) *ProductionFetcher {
	return &ProductionFetcher{resolver: resolver, tokens: tokens, metrics: m}
}

// FetchWithRetry fetches once and, only when the provider rejects the
// credential, refreshes it and fetches exactly one more time with the new
// token. A failed refresh surfaces the refresh error.
func (f *ProductionFetcher) FetchWithRetry(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	adapter := f.resolver.Resolve(account.Provider)

	reading, err := adapter.FetchProduction(ctx, account)
	if err == nil {
		return reading, nil
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeAuthExpired) {
		return nil, err
	}

	log.Info().
		Int64("accountId", account.ID).
		Str("provider", string(account.Provider)).
		Msg("provider credential expired, refreshing")

	token, err := adapter.RefreshCredential(ctx, account)
	if err != nil {
		f.metrics.CredentialRefreshed(string(account.Provider), false)
		log.Warn().
			Err(err).
			Int64("accountId", account.ID).
			Str("provider", string(account.Provider)).
			Msg("credential refresh failed")
		return nil, err
	}
	f.metrics.CredentialRefreshed(string(account.Provider), true)

	audit.Log(ctx, audit.Event{
		Type:         audit.EventCredentialRefreshed,
		UserID:       account.UserID,
		ConnectionID: account.ID,
		Details:      map[string]interface{}{"provider": string(account.Provider)},
	})

	if f.tokens != nil {
		if err := f.tokens.UpdateAccessToken(ctx, account.ID, token); err != nil {
			log.Warn().
				Err(err).
				Int64("accountId", account.ID).
				Msg("failed to persist refreshed access token")
		}
	}

	return adapter.FetchProduction(ctx, account.WithAccessToken(token))
}
