package provider

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

type stubAdapter struct {
	fetch   func(ctx context.Context, account model.Account) (*model.ProductionReading, error)
	refresh func(ctx context.Context, account model.Account) (string, error)
	calls   int
}

func (s *stubAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	s.calls++
	return s.fetch(ctx, account)
}

func (s *stubAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	return s.refresh(ctx, account)
}

func otherAccount() model.Account {
	account := testAccount(model.ProviderOther)
	account.APIKey = strPtr("api-key")
	return account
}

func TestFallbackAdapter_FetchProduction(t *testing.T) {
	t.Run("uses SMA contract when it answers", func(t *testing.T) {
		sma := &stubAdapter{fetch: func(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
			return &model.ProductionReading{Kwh: 12.5, ReportedAt: "2024-05-01T12:00:00Z"}, nil
		}}
		adapter := NewFallbackAdapter(FallbackConfig{PlaceholderKwh: 35.5}, sma)

		reading, err := adapter.FetchProduction(context.Background(), otherAccount())
		require.NoError(t, err)
		assert.Equal(t, 12.5, reading.Kwh)
		assert.False(t, reading.Estimated)
	})

	t.Run("placeholder when SMA contract fails", func(t *testing.T) {
		sma := &stubAdapter{fetch: func(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
			return nil, apperrors.ProviderError("SMA", "status 500")
		}}
		adapter := NewFallbackAdapter(FallbackConfig{PlaceholderKwh: 35.5}, sma)
		adapter.now = fixedClock

		reading, err := adapter.FetchProduction(context.Background(), otherAccount())
		require.NoError(t, err)
		assert.Equal(t, 35.5, reading.Kwh)
		assert.True(t, reading.Estimated)
		assert.Equal(t, "2024-05-01T14:30:00Z", reading.ReportedAt)
	})

	t.Run("placeholder without credentials skips SMA", func(t *testing.T) {
		sma := &stubAdapter{}
		adapter := NewFallbackAdapter(FallbackConfig{PlaceholderKwh: 35.5}, sma)
		account := testAccount(model.ProviderOther)

		reading, err := adapter.FetchProduction(context.Background(), account)
		require.NoError(t, err)
		assert.Equal(t, 35.5, reading.Kwh)
		assert.Zero(t, sma.calls)
	})

	t.Run("strict mode refuses placeholder", func(t *testing.T) {
		adapter := NewFallbackAdapter(FallbackConfig{PlaceholderKwh: 35.5, Strict: true}, nil)

		_, err := adapter.FetchProduction(context.Background(), testAccount(model.ProviderOther))
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotSupported))
	})
}

func TestFallbackAdapter_RefreshCredential(t *testing.T) {
	adapter := NewFallbackAdapter(FallbackConfig{}, NewSMAAdapter(SMAConfig{}, http.DefaultClient))
	_, err := adapter.RefreshCredential(context.Background(), otherAccount())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotSupported))
}
