package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RewardMetadata struct {
	Reason      string  `json:"reason"`
	KwhProduced float64 `json:"kwhProduced,omitempty"`
	Date        string  `json:"date,omitempty"`
}

// RewardIntent is a queued reward awaiting a distribution attempt. The
// distributor mutates Status and TxHash in place.
type RewardIntent struct {
	UserID    string          `json:"userId"`
	AccountID int64           `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Status    RewardStatus    `json:"status"`
	TxHash    *string         `json:"txHash,omitempty"`
	Metadata  *RewardMetadata `json:"metadata,omitempty"`
}

func (r RewardIntent) Memo() string {
	if r.Metadata != nil && r.Metadata.Reason != "" {
		return r.Metadata.Reason
	}
	return DefaultRewardReason
}

const DefaultRewardReason = "Solar energy production reward"

type RewardRecord struct {
	ID            int64           `db:"id" json:"id"`
	PassID        string          `db:"pass_id" json:"passId"`
	UserID        string          `db:"user_id" json:"userId"`
	ConnectionID  int64           `db:"connection_id" json:"connectionId"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	TxHash        *string         `db:"tx_hash" json:"txHash,omitempty"`
	Status        RewardStatus    `db:"status" json:"status"`
	KwhProduced   *float64        `db:"kwh_produced" json:"kwhProduced,omitempty"`
	DistributedAt time.Time       `db:"distributed_at" json:"distributedAt"`
}

// TransferRequest is what the distribution endpoint receives for one intent.
type TransferRequest struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Memo      string          `json:"memo"`
}

type NetworkStatus struct {
	Status    NetworkState `json:"status"`
	LatencyMs *int64       `json:"latency,omitempty"`
}
