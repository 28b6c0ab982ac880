package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password", "cron",
}

type Config struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RedisURL      string `env:"REDIS_URL,required"`
	CronAuthToken string `env:"CRON_AUTH_TOKEN,required"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Pipeline
	RewardRate                 float64 `env:"REWARD_RATE" envDefault:"0.1"`
	AccountDelayMs             int     `env:"ACCOUNT_DELAY_MS" envDefault:"1000"`
	DistributionDelayMs        int     `env:"DISTRIBUTION_DELAY_MS" envDefault:"500"`
	ProviderTimeoutSeconds     int     `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"10"`
	DistributionTimeoutSeconds int     `env:"DISTRIBUTION_TIMEOUT_SECONDS" envDefault:"10"`
	DailyFetchIntervalMinutes  int     `env:"DAILY_FETCH_INTERVAL_MINUTES" envDefault:"0"`
	PassLockTTLSeconds         int     `env:"PASS_LOCK_TTL_SECONDS" envDefault:"9000"`
	FallbackPlaceholderKwh     float64 `env:"FALLBACK_PLACEHOLDER_KWH" envDefault:"35.5"`
	FallbackStrict             bool    `env:"FALLBACK_STRICT" envDefault:"false"`

	// Providers
	EnphaseAPIKey         string `env:"ENPHASE_API_KEY"`
	EnphaseClientID       string `env:"ENPHASE_CLIENT_ID"`
	EnphaseClientSecret   string `env:"ENPHASE_CLIENT_SECRET"`
	EnphaseBaseURL        string `env:"ENPHASE_BASE_URL" envDefault:"https://api.enphaseenergy.com"`
	SolarEdgeClientID     string `env:"SOLAREDGE_CLIENT_ID"`
	SolarEdgeClientSecret string `env:"SOLAREDGE_CLIENT_SECRET"`
	SolarEdgeBaseURL      string `env:"SOLAREDGE_BASE_URL" envDefault:"https://monitoringapi.solaredge.com"`
	SolarEdgeAuthURL      string `env:"SOLAREDGE_AUTH_URL" envDefault:"https://monitoring.solaredge.com"`
	SMABaseURL            string `env:"SMA_BASE_URL" envDefault:"https://www.sunnyportal.com"`
	TeslaClientID         string `env:"TESLA_CLIENT_ID"`
	TeslaClientSecret     string `env:"TESLA_CLIENT_SECRET"`
	TeslaBaseURL          string `env:"TESLA_BASE_URL" envDefault:"https://owner-api.teslamotors.com"`
	TeslaAuthURL          string `env:"TESLA_AUTH_URL" envDefault:"https://auth.tesla.com"`
	SunPowerClientID      string `env:"SUNPOWER_CLIENT_ID"`
	SunPowerClientSecret  string `env:"SUNPOWER_CLIENT_SECRET"`
	SunPowerBaseURL       string `env:"SUNPOWER_BASE_URL" envDefault:"https://api.sunpower.com"`

	// Reward distribution
	DistributionURL      string  `env:"DISTRIBUTION_URL"`
	DistributionAPIKey   string  `env:"DISTRIBUTION_API_KEY"`
	DistributionNetwork  string  `env:"DISTRIBUTION_NETWORK" envDefault:"testnet"`
	B3TRContractAddress  string  `env:"B3TR_CONTRACT_ADDRESS"`
	SimulatedFailureRate float64 `env:"SIMULATED_FAILURE_RATE" envDefault:"0.05"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) AccountDelay() time.Duration {
	return time.Duration(c.AccountDelayMs) * time.Millisecond
}

func (c *Config) DistributionDelay() time.Duration {
	return time.Duration(c.DistributionDelayMs) * time.Millisecond
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) DistributionTimeout() time.Duration {
	return time.Duration(c.DistributionTimeoutSeconds) * time.Second
}

// DailyFetchInterval returns zero when the in-process schedule is disabled.
func (c *Config) DailyFetchInterval() time.Duration {
	return time.Duration(c.DailyFetchIntervalMinutes) * time.Minute
}

func (c *Config) PassLockTTL() time.Duration {
	return time.Duration(c.PassLockTTLSeconds) * time.Second
}

// SimulatedDistribution reports whether rewards go to the in-process simulator.
func (c *Config) SimulatedDistribution() bool {
	return c.DistributionURL == ""
}

func (c *Config) Validate(isProduction bool) error {
	if c.RewardRate < 0 {
		return fmt.Errorf("REWARD_RATE must not be negative")
	}
	if c.AccountDelayMs < 0 || c.DistributionDelayMs < 0 {
		return fmt.Errorf("ACCOUNT_DELAY_MS and DISTRIBUTION_DELAY_MS must not be negative")
	}
	if c.ProviderTimeoutSeconds <= 0 || c.DistributionTimeoutSeconds <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS and DISTRIBUTION_TIMEOUT_SECONDS must be positive")
	}
	if c.PassLockTTL() < PassRequestTimeout+PassLockMargin {
		return fmt.Errorf("PASS_LOCK_TTL_SECONDS must be at least %d", int((PassRequestTimeout + PassLockMargin).Seconds()))
	}
	if c.SimulatedFailureRate < 0 || c.SimulatedFailureRate > 1 {
		return fmt.Errorf("SIMULATED_FAILURE_RATE must be between 0 and 1")
	}
	if c.EncryptionKey != "" {
		key, err := hex.DecodeString(c.EncryptionKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
		}
	}

	if isProduction {
		if err := validateSecret("CRON_AUTH_TOKEN", c.CronAuthToken); err != nil {
			return err
		}

		if c.SimulatedDistribution() {
			log.Warn().Msg("DISTRIBUTION_URL is empty in production: rewards will be simulated")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: provider credentials will not be encrypted at rest")
		}
		if !c.FallbackStrict {
			log.Warn().Msg("FALLBACK_STRICT is disabled: unsupported providers will receive placeholder readings")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
