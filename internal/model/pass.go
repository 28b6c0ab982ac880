package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountFailure struct {
	AccountID int64    `json:"accountId"`
	UserID    string   `json:"userId"`
	Provider  Provider `json:"provider"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
}

// PassSummary aggregates one run of the daily pipeline.
type PassSummary struct {
	PassID             string           `json:"passId"`
	AccountsTotal      int              `json:"accountsTotal"`
	AccountsProcessed  int              `json:"processed"`
	AccountsFailed     int              `json:"failed"`
	TotalKwh           float64          `json:"totalKwh"`
	RewardsQueued      int              `json:"rewardsQueued"`
	RewardsDistributed int              `json:"rewardsDistributed"`
	RewardsFailed      int              `json:"rewardsFailed"`
	TotalReward        decimal.Decimal  `json:"totalB3TR"`
	Failures           []AccountFailure `json:"failures,omitempty"`
	StartedAt          time.Time        `json:"startedAt"`
	FinishedAt         time.Time        `json:"finishedAt"`
}
