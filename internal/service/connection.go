package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rooftop/solar-rewards-go/internal/audit"
	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/repository"
)

type ManualConnectionParams struct {
	UserID            string
	Provider          string
	APIKey            string
	SystemID          string
	SystemSize        *float64
	MonthlyGeneration *float64
	Country           *string
}

// UserHistory is a user's recent production and reward rows.
type UserHistory struct {
	Production []model.ProductionRecord `json:"production"`
	Rewards    []model.RewardRecord     `json:"rewards"`
}

type ConnectionService struct {
	accounts   repository.AccountRepository
	production repository.ProductionRepository
	rewards    repository.RewardRepository
}

func NewConnectionService(
	accounts repository.AccountRepository,
	production repository.ProductionRepository,
	rewards repository.RewardRepository,
) *ConnectionService {
	return &ConnectionService{
		accounts:   accounts,
		production: production,
		rewards:    rewards,
	}
}

// SaveManual links an API-key provider account. Saving the same provider for
// a user again replaces the earlier link.
func (s *ConnectionService) SaveManual(ctx context.Context, params ManualConnectionParams) (*model.Account, error) {
	userID := strings.TrimSpace(params.UserID)
	apiKey := strings.TrimSpace(params.APIKey)
	systemID := strings.TrimSpace(params.SystemID)

	switch {
	case userID == "":
		return nil, apperrors.MissingRequired("userId")
	case strings.TrimSpace(params.Provider) == "":
		return nil, apperrors.MissingRequired("provider")
	case apiKey == "":
		return nil, apperrors.MissingRequired("apiKey")
	case systemID == "":
		return nil, apperrors.MissingRequired("systemId")
	}
	if params.SystemSize != nil && *params.SystemSize < 0 {
		return nil, apperrors.InvalidInput("systemSize", "must not be negative")
	}
	if params.MonthlyGeneration != nil && *params.MonthlyGeneration < 0 {
		return nil, apperrors.InvalidInput("monthlyGeneration", "must not be negative")
	}

	p := model.ParseProvider(params.Provider)
	account, err := s.accounts.Upsert(ctx, model.SaveAccountParams{
		UserID:            userID,
		Provider:          p,
		APIKey:            &apiKey,
		SystemID:          &systemID,
		SystemSize:        params.SystemSize,
		MonthlyGeneration: params.MonthlyGeneration,
		Country:           params.Country,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:         audit.EventConnectionSaved,
		UserID:       userID,
		ConnectionID: account.ID,
		Details:      map[string]interface{}{"provider": string(p)},
	})
	log.Info().
		Str("userId", userID).
		Int64("accountId", account.ID).
		Str("provider", string(p)).
		Msg("manual connection saved")

	return account, nil
}

func (s *ConnectionService) ListConnections(ctx context.Context, userID string) ([]model.Account, error) {
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

func (s *ConnectionService) History(ctx context.Context, userID string, limit int) (*UserHistory, error) {
	production, err := s.production.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	rewards, err := s.rewards.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	history := &UserHistory{Production: production, Rewards: rewards}
	if history.Production == nil {
		history.Production = []model.ProductionRecord{}
	}
	if history.Rewards == nil {
		history.Rewards = []model.RewardRecord{}
	}
	return history, nil
}

// ConnectionProduction lists the daily rows of one connection, newest first.
func (s *ConnectionService) ConnectionProduction(ctx context.Context, connectionID int64, limit int) ([]model.ProductionRecord, error) {
	account, err := s.accounts.FindByID(ctx, connectionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Connection")
	}

	records, err := s.production.ListByConnection(ctx, connectionID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if records == nil {
		records = []model.ProductionRecord{}
	}
	return records, nil
}
