package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionReading is one adapter result. It is never stored directly.
type ProductionReading struct {
	Kwh        float64 `json:"kwh"`
	ReportedAt string  `json:"timestamp"`
	Estimated  bool    `json:"estimated,omitempty"`
}

type ProductionRecord struct {
	ID           int64           `db:"id" json:"id"`
	ConnectionID int64           `db:"connection_id" json:"connectionId"`
	Date         time.Time       `db:"date" json:"date"`
	DailyKwh     float64         `db:"daily_kwh" json:"dailyKwh"`
	MonthlyKwh   float64         `db:"monthly_kwh" json:"monthlyKwh"`
	TotalKwh     float64         `db:"total_kwh" json:"totalKwh"`
	RewardAmount decimal.Decimal `db:"b3tr_earned" json:"b3trEarned"`
	FetchedAt    time.Time       `db:"fetched_at" json:"fetchedAt"`
}

type UpsertProductionParams struct {
	ConnectionID int64
	Date         time.Time
	DailyKwh     float64
	RewardAmount decimal.Decimal
	FetchedAt    time.Time
}
