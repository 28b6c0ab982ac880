package provider

import (
	"strings"

	"github.com/rooftop/solar-rewards-go/internal/config"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

// Adapters lists one adapter per provider. Nil entries resolve to Fallback.
type Adapters struct {
	Enphase   Adapter
	SolarEdge Adapter
	SMA       Adapter
	Tesla     Adapter
	SunPower  Adapter
	Fallback  Adapter
}

type Registry struct {
	adapters Adapters
}

func NewRegistry(adapters Adapters) *Registry {
	return &Registry{adapters: adapters}
}

// NewRegistryFromConfig wires every adapter against the configured endpoints
// with one shared HTTP client.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	client := NewHTTPClient(cfg.ProviderTimeout())

	sma := NewSMAAdapter(SMAConfig{BaseURL: cfg.SMABaseURL}, client)

	return NewRegistry(Adapters{
		Enphase: NewEnphaseAdapter(EnphaseConfig{
			BaseURL: cfg.EnphaseBaseURL,
			APIKey:  cfg.EnphaseAPIKey,
			OAuth: OAuthClient{
				TokenURL:     joinURL(cfg.EnphaseBaseURL, "/oauth/token"),
				ClientID:     cfg.EnphaseClientID,
				ClientSecret: cfg.EnphaseClientSecret,
			},
		}, client),
		SolarEdge: NewSolarEdgeAdapter(SolarEdgeConfig{
			BaseURL: cfg.SolarEdgeBaseURL,
			OAuth: OAuthClient{
				TokenURL:     joinURL(cfg.SolarEdgeAuthURL, "/oauth/token"),
				ClientID:     cfg.SolarEdgeClientID,
				ClientSecret: cfg.SolarEdgeClientSecret,
			},
		}, client),
		SMA: sma,
		Tesla: NewTeslaAdapter(TeslaConfig{
			BaseURL: cfg.TeslaBaseURL,
			OAuth: OAuthClient{
				TokenURL:     joinURL(cfg.TeslaAuthURL, "/oauth2/v3/token"),
				ClientID:     cfg.TeslaClientID,
				ClientSecret: cfg.TeslaClientSecret,
			},
		}, client),
		SunPower: NewSunPowerAdapter(SunPowerConfig{
			BaseURL: cfg.SunPowerBaseURL,
			OAuth: OAuthClient{
				TokenURL:     joinURL(cfg.SunPowerBaseURL, "/oauth/token"),
				ClientID:     cfg.SunPowerClientID,
				ClientSecret: cfg.SunPowerClientSecret,
			},
		}, client),
		Fallback: NewFallbackAdapter(FallbackConfig{
			PlaceholderKwh: cfg.FallbackPlaceholderKwh,
			Strict:         cfg.FallbackStrict,
		}, sma),
	})
}

// Resolve never fails: unknown and unsupported providers get the fallback.
func (r *Registry) Resolve(p model.Provider) Adapter {
	var adapter Adapter
	switch p {
	case model.ProviderEnphase:
		adapter = r.adapters.Enphase
	case model.ProviderSolarEdge:
		adapter = r.adapters.SolarEdge
	case model.ProviderSMA:
		adapter = r.adapters.SMA
	case model.ProviderTesla:
		adapter = r.adapters.Tesla
	case model.ProviderSunPower:
		adapter = r.adapters.SunPower
	case model.ProviderOther:
		adapter = r.adapters.Fallback
	}
	if adapter == nil {
		return r.adapters.Fallback
	}
	return adapter
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
