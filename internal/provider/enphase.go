package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

type EnphaseConfig struct {
	BaseURL string
	APIKey  string
	OAuth   OAuthClient
}

type EnphaseAdapter struct {
	cfg    EnphaseConfig
	client *http.Client
	now    func() time.Time
}

func NewEnphaseAdapter(cfg EnphaseConfig, client *http.Client) *EnphaseAdapter {
	return &EnphaseAdapter{cfg: cfg, client: client, now: time.Now}
}

type enphaseSummaryResponse struct {
	SystemID   int64 `json:"system_id"`
	Production []struct {
		WhToday         float64 `json:"wh_today"`
		WhLastSevenDays float64 `json:"wh_last_seven_days"`
		WhLifetime      float64 `json:"wh_lifetime"`
	} `json:"production"`
	Meta struct {
		LastReportAt int64 `json:"last_report_at"`
	} `json:"meta"`
}

func (a *EnphaseAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	name := model.ProviderEnphase.DisplayName()
	if !account.HasAccessToken() {
		return nil, apperrors.MissingCredential(name, "access token")
	}
	systemID := account.SystemIDValue()
	if systemID == "" {
		return nil, apperrors.MissingCredential(name, "system ID")
	}

	endpoint := fmt.Sprintf("%s/api/v4/systems/%s/summary", strings.TrimRight(a.cfg.BaseURL, "/"), url.PathEscape(systemID))
	req, err := newJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.ProviderError(name, "invalid request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+*account.AccessToken)
	req.Header.Set("key", a.cfg.APIKey)

	var summary enphaseSummaryResponse
	if err := doJSON(a.client, req, model.ProviderEnphase, &summary); err != nil {
		return nil, err
	}

	if len(summary.Production) == 0 {
		return nil, apperrors.ProviderError(name, "no production data")
	}
	wh := summary.Production[0].WhToday

	reportedAt := nowRFC3339(a.now)
	if summary.Meta.LastReportAt > 0 {
		reportedAt = time.Unix(summary.Meta.LastReportAt, 0).UTC().Format(time.RFC3339)
	}

	return &model.ProductionReading{
		Kwh:        whToKwh(wh),
		ReportedAt: reportedAt,
	}, nil
}

func (a *EnphaseAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	return refreshAccessToken(ctx, a.client, a.cfg.OAuth, model.ProviderEnphase, account)
}
