package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

type FallbackConfig struct {
	PlaceholderKwh float64
	// Strict makes unreachable accounts fail with NOT_SUPPORTED instead of
	// receiving the placeholder reading.
	Strict bool
}

// FallbackAdapter serves accounts whose provider has no dedicated adapter. It
// tries the SMA contract when the account carries an API key and system ID.
type FallbackAdapter struct {
	cfg FallbackConfig
	sma Adapter
	now func() time.Time
}

func NewFallbackAdapter(cfg FallbackConfig, sma Adapter) *FallbackAdapter {
	return &FallbackAdapter{cfg: cfg, sma: sma, now: time.Now}
}

func (a *FallbackAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	if a.sma != nil && account.HasAPIKey() && account.SystemIDValue() != "" {
		reading, err := a.sma.FetchProduction(ctx, account)
		if err == nil {
			return reading, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		log.Warn().
			Err(err).
			Int64("accountId", account.ID).
			Str("provider", string(account.Provider)).
			Msg("fallback provider request failed")
	}

	if a.cfg.Strict {
		return nil, apperrors.NotSupported(account.Provider.DisplayName(), "production fetch")
	}

	log.Warn().
		Int64("accountId", account.ID).
		Str("provider", string(account.Provider)).
		Float64("kwh", a.cfg.PlaceholderKwh).
		Msg("using placeholder production reading")

	return &model.ProductionReading{
		Kwh:        a.cfg.PlaceholderKwh,
		ReportedAt: nowRFC3339(a.now),
		Estimated:  true,
	}, nil
}

func (a *FallbackAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	return "", apperrors.NotSupported(account.Provider.DisplayName(), "token refresh")
}
