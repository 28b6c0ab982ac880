package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

type SunPowerConfig struct {
	BaseURL string
	OAuth   OAuthClient
}

type SunPowerAdapter struct {
	cfg    SunPowerConfig
	client *http.Client
	now    func() time.Time
}

func NewSunPowerAdapter(cfg SunPowerConfig, client *http.Client) *SunPowerAdapter {
	return &SunPowerAdapter{cfg: cfg, client: client, now: time.Now}
}

type sunPowerSystem struct {
	SystemID       string   `json:"SYSTEM_ID"`
	EnergyDayWh    *float64 `json:"ENERGY_DAY_WH"`
	LastReportDate string   `json:"last_report_date"`
}

type sunPowerSystemsResponse struct {
	Addresses []struct {
		Systems []sunPowerSystem `json:"systems"`
	} `json:"addresses"`
}

func (a *SunPowerAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	name := model.ProviderSunPower.DisplayName()
	if !account.HasAccessToken() {
		return nil, apperrors.MissingCredential(name, "access token")
	}

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/v1/elec/systems"
	req, err := newJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.ProviderError(name, "invalid request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+*account.AccessToken)

	var systems sunPowerSystemsResponse
	if err := doJSON(a.client, req, model.ProviderSunPower, &systems); err != nil {
		return nil, err
	}

	systemID := account.SystemIDValue()
	system, ok := findSunPowerSystem(systems, systemID)
	if !ok {
		return nil, apperrors.SystemNotFound(name, systemID)
	}

	var wh float64
	if system.EnergyDayWh != nil {
		wh = *system.EnergyDayWh
	}
	reportedAt := system.LastReportDate
	if reportedAt == "" {
		reportedAt = nowRFC3339(a.now)
	}

	return &model.ProductionReading{
		Kwh:        whToKwh(wh),
		ReportedAt: reportedAt,
	}, nil
}

func findSunPowerSystem(resp sunPowerSystemsResponse, systemID string) (sunPowerSystem, bool) {
	if systemID == "" {
		return sunPowerSystem{}, false
	}
	for _, addr := range resp.Addresses {
		for _, sys := range addr.Systems {
			if sys.SystemID == systemID {
				return sys, true
			}
		}
	}
	return sunPowerSystem{}, false
}

func (a *SunPowerAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	return refreshAccessToken(ctx, a.client, a.cfg.OAuth, model.ProviderSunPower, account)
}
