package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rooftop/solar-rewards-go/internal/model"
)

type ProductionRepository interface {
	// Upsert writes the reading for (connection, date). A second write for the
	// same day replaces the first; monthly and lifetime totals are recomputed
	// from the connection's earlier days.
	Upsert(ctx context.Context, params model.UpsertProductionParams) (*model.ProductionRecord, error)
	ListByConnection(ctx context.Context, connectionID int64, limit int) ([]model.ProductionRecord, error)
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.ProductionRecord, error)
}

type productionRepo struct {
	db sqlxDB
}

func NewProductionRepository(db *sqlx.DB) ProductionRepository {
	return &productionRepo{db: db}
}

func (r *productionRepo) Upsert(ctx context.Context, params model.UpsertProductionParams) (*model.ProductionRecord, error) {
	var record model.ProductionRecord
	err := r.db.GetContext(ctx, &record, `
		INSERT INTO production_data (
			connection_id, date, daily_kwh, monthly_kwh, total_kwh, b3tr_earned, fetched_at
		)
		VALUES (
			$1, $2::date, $3,
			$3 + COALESCE((
				SELECT SUM(daily_kwh) FROM production_data
				WHERE connection_id = $1
				  AND date >= date_trunc('month', $2::date)
				  AND date < $2::date
			), 0),
			$3 + COALESCE((
				SELECT SUM(daily_kwh) FROM production_data
				WHERE connection_id = $1 AND date < $2::date
			), 0),
			$4, $5
		)
		ON CONFLICT (connection_id, date) DO UPDATE SET
			daily_kwh = EXCLUDED.daily_kwh,
			monthly_kwh = EXCLUDED.monthly_kwh,
			total_kwh = EXCLUDED.total_kwh,
			b3tr_earned = EXCLUDED.b3tr_earned,
			fetched_at = EXCLUDED.fetched_at
		RETURNING *
	`, params.ConnectionID, params.Date, params.DailyKwh, params.RewardAmount, params.FetchedAt)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *productionRepo) ListByConnection(ctx context.Context, connectionID int64, limit int) ([]model.ProductionRecord, error) {
	var records []model.ProductionRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM production_data
		WHERE connection_id = $1
		ORDER BY date DESC
		LIMIT $2
	`, connectionID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *productionRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.ProductionRecord, error) {
	var records []model.ProductionRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT p.* FROM production_data p
		JOIN user_connections c ON c.id = p.connection_id
		WHERE c.user_id = $1
		ORDER BY p.date DESC, p.connection_id ASC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return records, nil
}
