package model

import (
	"time"
)

// Account is a user's link to one solar-monitoring provider.
type Account struct {
	ID                int64      `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"userId"`
	Provider          Provider   `db:"provider" json:"provider"`
	AccessToken       *string    `db:"access_token" json:"-"`
	RefreshToken      *string    `db:"refresh_token" json:"-"`
	APIKey            *string    `db:"api_key" json:"-"`
	SystemID          *string    `db:"system_id" json:"systemId,omitempty"`
	SystemSize        *float64   `db:"system_size" json:"systemSize,omitempty"`
	MonthlyGeneration *float64   `db:"monthly_generation" json:"monthlyGeneration,omitempty"`
	Country           *string    `db:"country" json:"country,omitempty"`
	ConnectedAt       time.Time  `db:"connected_at" json:"connectedAt"`
	LastSync          *time.Time `db:"last_sync" json:"lastSync,omitempty"`
	IsActive          bool       `db:"is_active" json:"isActive"`
}

// WithAccessToken returns a copy of the account carrying the given bearer token.
func (a Account) WithAccessToken(token string) Account {
	a.AccessToken = &token
	return a
}

func (a Account) HasAccessToken() bool {
	return a.AccessToken != nil && *a.AccessToken != ""
}

func (a Account) HasRefreshToken() bool {
	return a.RefreshToken != nil && *a.RefreshToken != ""
}

func (a Account) HasAPIKey() bool {
	return a.APIKey != nil && *a.APIKey != ""
}

func (a Account) SystemIDValue() string {
	if a.SystemID == nil {
		return ""
	}
	return *a.SystemID
}

type SaveAccountParams struct {
	UserID            string
	Provider          Provider
	AccessToken       *string
	RefreshToken      *string
	APIKey            *string
	SystemID          *string
	SystemSize        *float64
	MonthlyGeneration *float64
	Country           *string
}
