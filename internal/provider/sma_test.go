package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

func smaAccount() model.Account {
	account := testAccount(model.ProviderSMA)
	account.AccessToken = nil
	account.APIKey = strPtr("sma-key")
	return account
}

func TestSMAAdapter_FetchProduction(t *testing.T) {
	t.Run("uses latest daily yield sample", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/Templates/PublicPageOverview.aspx", r.URL.Path)
			assert.Equal(t, "Bearer sma-key", r.Header.Get("Authorization"))

			var body smaRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "GetPlantOverview", body.Proc)
			assert.Equal(t, "12345", body.Params.PlantOid)

			writeJSON(t, w, http.StatusOK, map[string]any{
				"result": map[string]any{
					"1714550400": map[string]any{
						"inverter-1": map[string]any{
							smaDailyYieldChannel: map[string]any{"1": []map[string]any{{"val": 1000}}},
						},
					},
					"1714573800": map[string]any{
						"inverter-1": map[string]any{
							smaDailyYieldChannel: map[string]any{"1": []map[string]any{{"val": 20000}, {"val": 30250}}},
						},
					},
				},
			})
		})

		adapter := NewSMAAdapter(SMAConfig{BaseURL: srv.URL}, srv.Client())
		adapter.now = fixedClock

		reading, err := adapter.FetchProduction(context.Background(), smaAccount())
		require.NoError(t, err)
		assert.InDelta(t, 30.25, reading.Kwh, 1e-9)
	})

	t.Run("sends the day bounds as unix seconds", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			params, ok := body["params"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, float64(1714521600), params["startDate"])
			assert.Equal(t, float64(1714607999), params["endDate"])

			writeJSON(t, w, http.StatusOK, map[string]any{"result": map[string]any{}})
		})

		adapter := NewSMAAdapter(SMAConfig{BaseURL: srv.URL}, srv.Client())
		adapter.now = func() time.Time {
			return time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC).In(time.FixedZone("UTC-5", -5*60*60))
		}

		_, err := adapter.FetchProduction(context.Background(), smaAccount())
		require.NoError(t, err)
	})

	t.Run("no samples reads zero", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"result": nil})
		})

		adapter := NewSMAAdapter(SMAConfig{BaseURL: srv.URL}, srv.Client())
		reading, err := adapter.FetchProduction(context.Background(), smaAccount())
		require.NoError(t, err)
		assert.Zero(t, reading.Kwh)
	})

	t.Run("requires API key", func(t *testing.T) {
		adapter := NewSMAAdapter(SMAConfig{}, http.DefaultClient)
		_, err := adapter.FetchProduction(context.Background(), testAccount(model.ProviderSMA))
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingCredential))
	})
}

func TestSMAAdapter_RefreshCredential(t *testing.T) {
	adapter := NewSMAAdapter(SMAConfig{}, http.DefaultClient)
	_, err := adapter.RefreshCredential(context.Background(), smaAccount())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotSupported))
}
