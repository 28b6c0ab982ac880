package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

type SolarEdgeConfig struct {
	BaseURL string
	OAuth   OAuthClient
}

// SolarEdgeAdapter accepts either an OAuth access token or a site API key,
// preferring the token.
type SolarEdgeAdapter struct {
	cfg    SolarEdgeConfig
	client *http.Client
	now    func() time.Time
}

func NewSolarEdgeAdapter(cfg SolarEdgeConfig, client *http.Client) *SolarEdgeAdapter {
	return &SolarEdgeAdapter{cfg: cfg, client: client, now: time.Now}
}

type solarEdgeEnergyResponse struct {
	Energy struct {
		TimeUnit string `json:"timeUnit"`
		Unit     string `json:"unit"`
		Values   []struct {
			Date  string   `json:"date"`
			Value *float64 `json:"value"`
		} `json:"values"`
	} `json:"energy"`
}

func (a *SolarEdgeAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	name := model.ProviderSolarEdge.DisplayName()

	var key string
	switch {
	case account.HasAccessToken():
		key = *account.AccessToken
	case account.HasAPIKey():
		key = *account.APIKey
	default:
		return nil, apperrors.MissingCredential(name, "access token or API key")
	}
	systemID := account.SystemIDValue()
	if systemID == "" {
		return nil, apperrors.MissingCredential(name, "system ID")
	}

	today := startOfDay(a.now()).Format("2006-01-02")
	query := url.Values{
		"timeUnit":  {"DAY"},
		"startDate": {today},
		"endDate":   {today},
		"api_key":   {key},
	}
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/site/" + url.PathEscape(systemID) + "/energy?" + query.Encode()

	req, err := newJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.ProviderError(name, "invalid request").WithCause(err)
	}

	var energy solarEdgeEnergyResponse
	if err := doJSON(a.client, req, model.ProviderSolarEdge, &energy); err != nil {
		return nil, err
	}

	var wh float64
	for _, v := range energy.Energy.Values {
		if v.Value == nil || !strings.HasPrefix(v.Date, today) {
			continue
		}
		wh += *v.Value
	}

	return &model.ProductionReading{
		Kwh:        whToKwh(wh),
		ReportedAt: nowRFC3339(a.now),
	}, nil
}

func (a *SolarEdgeAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	return refreshAccessToken(ctx, a.client, a.cfg.OAuth, model.ProviderSolarEdge, account)
}
