// Package metrics exposes pipeline counters to Prometheus. A nil *Metrics and
// an unregistered *Metrics are both valid no-op recorders.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solar_rewards"

type Metrics struct {
	accounts       *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	rewards        *prometheus.CounterVec
	kwhTotal       prometheus.Counter
	passes         *prometheus.CounterVec
	passDuration   prometheus.Histogram
	lastPassFinish prometheus.Gauge

	registerOnce sync.Once
}

func New() *Metrics {
	return &Metrics{}
}

// Register registers the collectors with registry. Nil registry is a no-op;
// repeated calls after the first are no-ops.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if m == nil || registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.accounts = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_total",
			Help:      "Accounts handled by daily passes, by provider and outcome",
		}, []string{"provider", "outcome"})

		m.refreshes = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_refreshes_total",
			Help:      "Credential refresh attempts, by provider and outcome",
		}, []string{"provider", "outcome"})

		m.rewards = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_total",
			Help:      "Reward distribution attempts, by terminal status",
		}, []string{"status"})

		m.kwhTotal = factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "production_kwh_total",
			Help:      "Energy recorded by daily passes in kWh",
		})

		m.passes = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Daily passes, by result",
		}, []string{"result"})

		m.passDuration = factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a daily pass",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		})

		m.lastPassFinish = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_finished_timestamp_seconds",
			Help:      "Unix time the last daily pass finished",
		})
	})
}

func (m *Metrics) AccountSucceeded(provider string, kwh float64) {
	if m == nil || m.accounts == nil {
		return
	}
	m.accounts.WithLabelValues(provider, "success").Inc()
	if kwh > 0 {
		m.kwhTotal.Add(kwh)
	}
}

func (m *Metrics) AccountFailed(provider, code string) {
	if m == nil || m.accounts == nil {
		return
	}
	m.accounts.WithLabelValues(provider, code).Inc()
}

func (m *Metrics) CredentialRefreshed(provider string, ok bool) {
	if m == nil || m.refreshes == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.refreshes.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RewardDistributed(status string) {
	if m == nil || m.rewards == nil {
		return
	}
	m.rewards.WithLabelValues(status).Inc()
}

// PassFinished records one pass. result is "completed", "cancelled" or "failed".
func (m *Metrics) PassFinished(result string, elapsed time.Duration, at time.Time) {
	if m == nil || m.passes == nil {
		return
	}
	m.passes.WithLabelValues(result).Inc()
	m.passDuration.Observe(elapsed.Seconds())
	m.lastPassFinish.Set(float64(at.Unix()))
}
