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

func TestTeslaAdapter_FetchProduction(t *testing.T) {
	t.Run("sums exported solar energy", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
			switch r.URL.Path {
			case "/api/1/energy_sites/12345/live_status":
				writeJSON(t, w, http.StatusOK, map[string]any{
					"response": map[string]any{
						"solar_power": 4200,
						"solar":       map[string]any{"last_communication_time": "2024-05-01T14:29:00Z"},
					},
				})
			case "/api/1/energy_sites/12345/history":
				assert.Equal(t, "energy", r.URL.Query().Get("kind"))
				assert.Equal(t, "2024-05-01T00:00:00Z", r.URL.Query().Get("start_date"))
				writeJSON(t, w, http.StatusOK, map[string]any{
					"response": map[string]any{
						"time_series": []map[string]any{
							{"timestamp": "2024-05-01T09:00:00Z", "solar_energy_exported": 10000},
							{"timestamp": "2024-05-01T12:00:00Z", "solar_energy_exported": 8000},
						},
					},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})

		adapter := NewTeslaAdapter(TeslaConfig{BaseURL: srv.URL}, srv.Client())
		adapter.now = fixedClock

		reading, err := adapter.FetchProduction(context.Background(), testAccount(model.ProviderTesla))
		require.NoError(t, err)
		assert.InDelta(t, 18.0, reading.Kwh, 1e-9)
		assert.Equal(t, "2024-05-01T14:29:00Z", reading.ReportedAt)
		assert.False(t, reading.Estimated)
	})

	t.Run("estimates from live power when history fails", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/1/energy_sites/12345/history" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(t, w, http.StatusOK, map[string]any{"response": map[string]any{"solar_power": 3000}})
		})

		adapter := NewTeslaAdapter(TeslaConfig{BaseURL: srv.URL}, srv.Client())
		adapter.now = fixedClock

		reading, err := adapter.FetchProduction(context.Background(), testAccount(model.ProviderTesla))
		require.NoError(t, err)
		assert.InDelta(t, 24.0, reading.Kwh, 1e-9)
		assert.True(t, reading.Estimated)
		assert.Equal(t, "2024-05-01T14:30:00Z", reading.ReportedAt)
	})

	t.Run("rejected live status is auth expired", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		adapter := NewTeslaAdapter(TeslaConfig{BaseURL: srv.URL}, srv.Client())
		_, err := adapter.FetchProduction(context.Background(), testAccount(model.ProviderTesla))
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthExpired))
	})
}
