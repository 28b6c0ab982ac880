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

func TestSolarEdgeAdapter_FetchProduction(t *testing.T) {
	t.Run("sums today's values", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/site/12345/energy", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "DAY", q.Get("timeUnit"))
			assert.Equal(t, "2024-05-01", q.Get("startDate"))
			assert.Equal(t, "2024-05-01", q.Get("endDate"))
			assert.Equal(t, "access-token", q.Get("api_key"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"energy": map[string]any{
					"timeUnit": "DAY",
					"unit":     "Wh",
					"values": []map[string]any{
						{"date": "2024-04-30 00:00:00", "value": 99000},
						{"date": "2024-05-01 00:00:00", "value": 12000},
						{"date": "2024-05-01 12:00:00", "value": 500},
						{"date": "2024-05-01 13:00:00", "value": nil},
					},
				},
			})
		})

		adapter := NewSolarEdgeAdapter(SolarEdgeConfig{BaseURL: srv.URL}, srv.Client())
		adapter.now = fixedClock

		reading, err := adapter.FetchProduction(context.Background(), testAccount(model.ProviderSolarEdge))
		require.NoError(t, err)
		assert.InDelta(t, 12.5, reading.Kwh, 1e-9)
		assert.Equal(t, "2024-05-01T14:30:00Z", reading.ReportedAt)
	})

	t.Run("falls back to API key", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "site-key", r.URL.Query().Get("api_key"))
			writeJSON(t, w, http.StatusOK, map[string]any{"energy": map[string]any{"values": []any{}}})
		})

		adapter := NewSolarEdgeAdapter(SolarEdgeConfig{BaseURL: srv.URL}, srv.Client())
		adapter.now = fixedClock
		account := testAccount(model.ProviderSolarEdge)
		account.AccessToken = nil
		account.APIKey = strPtr("site-key")

		reading, err := adapter.FetchProduction(context.Background(), account)
		require.NoError(t, err)
		assert.Zero(t, reading.Kwh)
	})

	t.Run("missing credential", func(t *testing.T) {
		adapter := NewSolarEdgeAdapter(SolarEdgeConfig{}, http.DefaultClient)
		account := testAccount(model.ProviderSolarEdge)
		account.AccessToken = nil

		_, err := adapter.FetchProduction(context.Background(), account)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingCredential))
	})
}
