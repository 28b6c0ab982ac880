package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/util"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	ListActive(ctx context.Context) ([]model.Account, error)
	ListByUserID(ctx context.Context, userID string) ([]model.Account, error)
	Upsert(ctx context.Context, params model.SaveAccountParams) (*model.Account, error)
	UpdateAccessToken(ctx context.Context, id int64, accessToken string) error
	TouchLastSync(ctx context.Context, id int64, at time.Time) error
}

// accountRepo seals credential columns on write and opens them on read.
type accountRepo struct {
	db     sqlxDB
	cipher *util.CredentialCipher
}

func NewAccountRepository(db *sqlx.DB, cipher *util.CredentialCipher) AccountRepository {
	return &accountRepo{db: db, cipher: cipher}
}

func (r *accountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM user_connections WHERE id = $1
	`, id)
	found, err := HandleNotFound(&account, err)
	if found != nil {
		r.openCredentials(found)
	}
	return found, err
}

func (r *accountRepo) ListActive(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM user_connections
		WHERE is_active = TRUE
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		r.openCredentials(&accounts[i])
	}
	return accounts, nil
}

func (r *accountRepo) ListByUserID(ctx context.Context, userID string) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM user_connections
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY connected_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		r.openCredentials(&accounts[i])
	}
	return accounts, nil
}

func (r *accountRepo) Upsert(ctx context.Context, params model.SaveAccountParams) (*model.Account, error) {
	accessToken, err := r.cipher.SealPtr(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}
	refreshToken, err := r.cipher.SealPtr(params.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("seal refresh token: %w", err)
	}
	apiKey, err := r.cipher.SealPtr(params.APIKey)
	if err != nil {
		return nil, fmt.Errorf("seal api key: %w", err)
	}

	var account model.Account
	err = r.db.GetContext(ctx, &account, `
		INSERT INTO user_connections (
			user_id, provider, access_token, refresh_token, api_key,
			system_id, system_size, monthly_generation, country, connected_at, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), TRUE)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			api_key = EXCLUDED.api_key,
			system_id = EXCLUDED.system_id,
			system_size = EXCLUDED.system_size,
			monthly_generation = EXCLUDED.monthly_generation,
			country = EXCLUDED.country,
			connected_at = EXCLUDED.connected_at,
			is_active = TRUE
		RETURNING *
	`, params.UserID, params.Provider, accessToken, refreshToken, apiKey,
		params.SystemID, params.SystemSize, params.MonthlyGeneration, params.Country)
	if err != nil {
		return nil, err
	}

	r.openCredentials(&account)
	return &account, nil
}

func (r *accountRepo) UpdateAccessToken(ctx context.Context, id int64, accessToken string) error {
	sealed, err := r.cipher.Seal(accessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE user_connections SET access_token = $1 WHERE id = $2
	`, sealed, id)
	return err
}

func (r *accountRepo) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_connections SET last_sync = $1 WHERE id = $2
	`, at, id)
	return err
}

// openCredentials clears credentials that fail to decrypt, so the account
// fails with MISSING_CREDENTIAL on its own instead of failing the listing.
func (r *accountRepo) openCredentials(account *model.Account) {
	fields := []**string{&account.AccessToken, &account.RefreshToken, &account.APIKey}
	for _, field := range fields {
		opened, err := r.cipher.OpenPtr(*field)
		if err != nil {
			log.Warn().
				Err(err).
				Int64("accountId", account.ID).
				Msg("failed to decrypt stored credential")
			*field = nil
			continue
		}
		*field = opened
	}
}
