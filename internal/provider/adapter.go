// Package provider converts stored solar accounts into production readings,
// one adapter per monitoring vendor.
package provider

import (
	"context"
	"time"

	"github.com/rooftop/solar-rewards-go/internal/model"
)

// Adapter is implemented once per provider.
//
// FetchProduction fails with MISSING_CREDENTIAL when the account lacks what the
// provider needs, AUTH_EXPIRED when the provider rejects the credential, and
// PROVIDER_ERROR for anything else. RefreshCredential fails with
// MISSING_REFRESH_CREDENTIAL, REFRESH_FAILED or NOT_SUPPORTED.
type Adapter interface {
	FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error)
	RefreshCredential(ctx context.Context, account model.Account) (string, error)
}

// Resolver maps a provider tag to its adapter. It never fails.
type Resolver interface {
	Resolve(p model.Provider) Adapter
}

const whPerKwh = 1000.0

func whToKwh(wh float64) float64 {
	return wh / whPerKwh
}

// startOfDay returns UTC midnight of t's UTC calendar day, the same day the
// pipeline records production under.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nowRFC3339(now func() time.Time) string {
	return now().UTC().Format(time.RFC3339)
}
