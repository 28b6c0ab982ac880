package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rooftop/solar-rewards-go/internal/model"
)

type RewardRepository interface {
	// AppendBatch records the terminal state of every intent in one statement,
	// so either all rows of a pass land or none do.
	AppendBatch(ctx context.Context, passID string, intents []model.RewardIntent, at time.Time) error
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.RewardRecord, error)
}

type rewardRepo struct {
	db sqlxDB
}

func NewRewardRepository(db *sqlx.DB) RewardRepository {
	return &rewardRepo{db: db}
}

const rewardColumns = 8

func (r *rewardRepo) AppendBatch(ctx context.Context, passID string, intents []model.RewardIntent, at time.Time) error {
	if len(intents) == 0 {
		return nil
	}

	var query strings.Builder
	query.WriteString(`INSERT INTO b3tr_rewards (
		pass_id, user_id, connection_id, amount, tx_hash, status, kwh_produced, distributed_at
	) VALUES `)

	args := make([]any, 0, len(intents)*rewardColumns)
	for i, intent := range intents {
		if i > 0 {
			query.WriteString(", ")
		}
		base := i * rewardColumns
		fmt.Fprintf(&query, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)

		var kwh *float64
		if intent.Metadata != nil {
			kwh = &intent.Metadata.KwhProduced
		}
		args = append(args, passID, intent.UserID, intent.AccountID, intent.Amount,
			intent.TxHash, intent.Status, kwh, at)
	}

	_, err := r.db.ExecContext(ctx, query.String(), args...)
	return err
}

func (r *rewardRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.RewardRecord, error) {
	var records []model.RewardRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM b3tr_rewards
		WHERE user_id = $1
		ORDER BY distributed_at DESC, id DESC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return records, nil
}
