package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

// teslaEstimateHours converts instantaneous solar power into a daily estimate
// when the energy history is unavailable.
const teslaEstimateHours = 8

type TeslaConfig struct {
	BaseURL string
	OAuth   OAuthClient
}

type TeslaAdapter struct {
	cfg    TeslaConfig
	client *http.Client
	now    func() time.Time
}

func NewTeslaAdapter(cfg TeslaConfig, client *http.Client) *TeslaAdapter {
	return &TeslaAdapter{cfg: cfg, client: client, now: time.Now}
}

type teslaLiveStatusResponse struct {
	Response struct {
		SolarPower float64 `json:"solar_power"`
		Solar      *struct {
			LastCommunicationTime string `json:"last_communication_time"`
		} `json:"solar"`
	} `json:"response"`
}

// solar_energy_exported is reported in Wh per interval.
type teslaHistoryResponse struct {
	Response struct {
		TimeSeries []struct {
			Timestamp           string  `json:"timestamp"`
			SolarEnergyExported float64 `json:"solar_energy_exported"`
		} `json:"time_series"`
	} `json:"response"`
}

func (a *TeslaAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	name := model.ProviderTesla.DisplayName()
	if !account.HasAccessToken() {
		return nil, apperrors.MissingCredential(name, "access token")
	}
	siteID := account.SystemIDValue()
	if siteID == "" {
		return nil, apperrors.MissingCredential(name, "system ID")
	}

	base := fmt.Sprintf("%s/api/1/energy_sites/%s", strings.TrimRight(a.cfg.BaseURL, "/"), url.PathEscape(siteID))
	token := *account.AccessToken

	req, err := newJSONRequest(ctx, http.MethodGet, base+"/live_status", nil)
	if err != nil {
		return nil, apperrors.ProviderError(name, "invalid request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var live teslaLiveStatusResponse
	if err := doJSON(a.client, req, model.ProviderTesla, &live); err != nil {
		return nil, err
	}

	reportedAt := nowRFC3339(a.now)
	if live.Response.Solar != nil && live.Response.Solar.LastCommunicationTime != "" {
		reportedAt = live.Response.Solar.LastCommunicationTime
	}

	wh, err := a.todayEnergy(ctx, base, token)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ProviderError(name, "request cancelled").WithCause(ctx.Err())
		}
		log.Warn().
			Err(err).
			Int64("accountId", account.ID).
			Msg("tesla energy history unavailable, estimating from live power")
		return &model.ProductionReading{
			Kwh:        live.Response.SolarPower / whPerKwh * teslaEstimateHours,
			ReportedAt: reportedAt,
			Estimated:  true,
		}, nil
	}

	return &model.ProductionReading{
		Kwh:        whToKwh(wh),
		ReportedAt: reportedAt,
	}, nil
}

func (a *TeslaAdapter) todayEnergy(ctx context.Context, base, token string) (float64, error) {
	query := url.Values{
		"kind":       {"energy"},
		"start_date": {startOfDay(a.now()).Format(time.RFC3339)},
	}
	req, err := newJSONRequest(ctx, http.MethodGet, base+"/history?"+query.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var history teslaHistoryResponse
	if err := doJSON(a.client, req, model.ProviderTesla, &history); err != nil {
		return 0, err
	}

	var wh float64
	for _, point := range history.Response.TimeSeries {
		wh += point.SolarEnergyExported
	}
	return wh, nil
}

func (a *TeslaAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	return refreshAccessToken(ctx, a.client, a.cfg.OAuth, model.ProviderTesla, account)
}
