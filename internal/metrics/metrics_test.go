package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("records after register", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		m := New()
		m.Register(registry)
		m.Register(registry)

		m.AccountSucceeded("enphase", 25.5)
		m.AccountSucceeded("enphase", 4.5)
		m.AccountFailed("tesla", "AUTH_EXPIRED")
		m.CredentialRefreshed("tesla", false)
		m.RewardDistributed("success")
		m.RewardDistributed("failed")
		m.RewardDistributed("success")
		m.PassFinished("completed", 3*time.Second, time.Unix(1714573800, 0))

		assert.Equal(t, 2.0, testutil.ToFloat64(m.accounts.WithLabelValues("enphase", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.accounts.WithLabelValues("tesla", "AUTH_EXPIRED")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("tesla", "failure")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.rewards.WithLabelValues("success")))
		assert.InDelta(t, 30.0, testutil.ToFloat64(m.kwhTotal), 1e-9)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.passes.WithLabelValues("completed")))
		assert.Equal(t, 1714573800.0, testutil.ToFloat64(m.lastPassFinish))
	})

	t.Run("unregistered and nil are no-ops", func(t *testing.T) {
		var nilMetrics *Metrics
		assert.NotPanics(t, func() {
			nilMetrics.Register(prometheus.NewRegistry())
			nilMetrics.AccountSucceeded("sma", 1)
			nilMetrics.PassFinished("failed", time.Second, time.Now())

			m := New()
			m.Register(nil)
			m.AccountFailed("sma", "PROVIDER_ERROR")
			m.RewardDistributed("failed")
		})
	})
}
