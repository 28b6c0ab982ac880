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

func sunPowerServer(t *testing.T) string {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/elec/systems", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"addresses": []map[string]any{
				{"systems": []map[string]any{{"SYSTEM_ID": "other", "ENERGY_DAY_WH": 1000}}},
				{"systems": []map[string]any{{
					"SYSTEM_ID":        "12345",
					"ENERGY_DAY_WH":    33333.333,
					"last_report_date": "2024-05-01T14:00:00Z",
				}}},
			},
		})
	})
	return srv.URL
}

func TestSunPowerAdapter_FetchProduction(t *testing.T) {
	t.Run("finds system across addresses", func(t *testing.T) {
		adapter := NewSunPowerAdapter(SunPowerConfig{BaseURL: sunPowerServer(t)}, http.DefaultClient)
		adapter.now = fixedClock

		reading, err := adapter.FetchProduction(context.Background(), testAccount(model.ProviderSunPower))
		require.NoError(t, err)
		assert.InDelta(t, 33.333333, reading.Kwh, 1e-9)
		assert.Equal(t, "2024-05-01T14:00:00Z", reading.ReportedAt)
	})

	t.Run("unknown system", func(t *testing.T) {
		adapter := NewSunPowerAdapter(SunPowerConfig{BaseURL: sunPowerServer(t)}, http.DefaultClient)
		account := testAccount(model.ProviderSunPower)
		account.SystemID = strPtr("missing")

		_, err := adapter.FetchProduction(context.Background(), account)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSystemNotFound))
	})
}
