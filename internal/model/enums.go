package model

import "strings"

// Provider identifies a solar-monitoring vendor. The set is closed; anything
// unrecognized parses to ProviderOther.
type Provider string

const (
	ProviderEnphase   Provider = "enphase"
	ProviderSolarEdge Provider = "solaredge"
	ProviderSMA       Provider = "sma"
	ProviderTesla     Provider = "tesla"
	ProviderSunPower  Provider = "sunpower"
	ProviderOther     Provider = "other"
)

var knownProviders = []Provider{
	ProviderEnphase,
	ProviderSolarEdge,
	ProviderSMA,
	ProviderTesla,
	ProviderSunPower,
	ProviderOther,
}

func ParseProvider(name string) Provider {
	normalized := Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range knownProviders {
		if p == normalized {
			return p
		}
	}
	return ProviderOther
}

// KnownProviders returns the supported provider tags in display order.
func KnownProviders() []Provider {
	out := make([]Provider, len(knownProviders))
	copy(out, knownProviders)
	return out
}

// DisplayName is used in log lines and error messages.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderEnphase:
		return "Enphase"
	case ProviderSolarEdge:
		return "SolarEdge"
	case ProviderSMA:
		return "SMA"
	case ProviderTesla:
		return "Tesla"
	case ProviderSunPower:
		return "SunPower"
	default:
		return "Other"
	}
}

type RewardStatus string

const (
	RewardStatusPending RewardStatus = "pending"
	RewardStatusSuccess RewardStatus = "success"
	RewardStatusFailed  RewardStatus = "failed"
)

type NetworkState string

const (
	NetworkOnline  NetworkState = "online"
	NetworkOffline NetworkState = "offline"
)
