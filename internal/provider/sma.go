package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

// smaDailyYieldChannel is the Sunny Portal channel carrying the daily yield in Wh.
const smaDailyYieldChannel = "6100_40263F00"

type SMAConfig struct {
	BaseURL string
}

// SMAAdapter talks to the Sunny Portal JSON-RPC overview. It authenticates
// with the account's API key and cannot refresh credentials.
type SMAAdapter struct {
	cfg    SMAConfig
	client *http.Client
	now    func() time.Time
}

func NewSMAAdapter(cfg SMAConfig, client *http.Client) *SMAAdapter {
	return &SMAAdapter{cfg: cfg, client: client, now: time.Now}
}

type smaRequest struct {
	Version string          `json:"version"`
	Proc    string          `json:"proc"`
	ID      string          `json:"id"`
	Format  string          `json:"format"`
	Params  smaRequestParam `json:"params"`
}

type smaRequestParam struct {
	PlantOid string `json:"plantOid"`
	// Unix seconds bounding the day.
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`
}

type smaSample struct {
	Val *float64 `json:"val"`
}

// result[timestamp][device][channel][index][]sample
type smaResponse struct {
	Result map[string]map[string]map[string]map[string][]smaSample `json:"result"`
}

func (a *SMAAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	name := model.ProviderSMA.DisplayName()
	if !account.HasAPIKey() {
		return nil, apperrors.MissingCredential(name, "API key")
	}
	systemID := account.SystemIDValue()
	if systemID == "" {
		return nil, apperrors.MissingCredential(name, "system ID")
	}

	now := a.now()
	dayStart := startOfDay(now)
	payload, err := json.Marshal(smaRequest{
		Version: "1.0",
		Proc:    "GetPlantOverview",
		ID:      "1",
		Format:  "JSON",
		Params: smaRequestParam{
			PlantOid:  systemID,
			StartDate: dayStart.Unix(),
			EndDate:   dayStart.Add(24*time.Hour).Unix() - 1,
		},
	})
	if err != nil {
		return nil, apperrors.ProviderError(name, "invalid request").WithCause(err)
	}

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/Templates/PublicPageOverview.aspx"
	req, err := newJSONRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.ProviderError(name, "invalid request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+*account.APIKey)

	var overview smaResponse
	if err := doJSON(a.client, req, model.ProviderSMA, &overview); err != nil {
		return nil, err
	}

	return &model.ProductionReading{
		Kwh:        whToKwh(latestDailyYield(overview)),
		ReportedAt: now.UTC().Format(time.RFC3339),
	}, nil
}

// latestDailyYield returns the last daily-yield sample of the latest timestamp.
// Earlier samples are superseded, so only the latest value approximates today.
func latestDailyYield(overview smaResponse) float64 {
	var latest float64

	timestamps := sortedKeys(overview.Result)
	for _, ts := range timestamps {
		devices := overview.Result[ts]
		for _, device := range sortedKeys(devices) {
			channel, ok := devices[device][smaDailyYieldChannel]
			if !ok {
				continue
			}
			samples := channel["1"]
			if len(samples) == 0 {
				continue
			}
			if last := samples[len(samples)-1]; last.Val != nil {
				latest = *last.Val
			}
		}
	}

	return latest
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a *SMAAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	return "", apperrors.NotSupported(model.ProviderSMA.DisplayName(), "token refresh")
}
