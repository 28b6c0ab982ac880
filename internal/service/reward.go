package service

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
)

// RewardDecimals is the precision of every reward amount.
const RewardDecimals = 6

// RewardFor returns floor(kwh * rate * 10^6) / 10^6. Amounts are truncated,
// never rounded, and non-positive or non-finite inputs yield zero.
func RewardFor(kwh float64, rate decimal.Decimal) decimal.Decimal {
	if kwh <= 0 || math.IsNaN(kwh) || math.IsInf(kwh, 0) || rate.Sign() <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(kwh).Mul(rate).Truncate(RewardDecimals)
}

// RewardCalculator holds the process-wide reward rate (tokens per kWh).
// A rate change applies to every later Calculate; amounts already computed
// are unaffected.
type RewardCalculator struct {
	mu   sync.RWMutex
	rate decimal.Decimal
}

func NewRewardCalculator(rate decimal.Decimal) *RewardCalculator {
	return &RewardCalculator{rate: rate}
}

func (c *RewardCalculator) Rate() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

func (c *RewardCalculator) SetRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return apperrors.InvalidInput("rate", "must not be negative")
	}
	c.mu.Lock()
	c.rate = rate
	c.mu.Unlock()
	return nil
}

func (c *RewardCalculator) Calculate(kwh float64) decimal.Decimal {
	return RewardFor(kwh, c.Rate())
}
