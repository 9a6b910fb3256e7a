package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/fieldtrack/tracker-go/internal/model"
)

type StatsRepository interface {
	Aggregate(ctx context.Context, accountID string) (*model.DashboardAggregate, error)
	OutcomeCounts(ctx context.Context, accountID string) ([]model.OutcomeCount, error)
}

type statsRepo struct {
	db sqlxDB
}

func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) Aggregate(ctx context.Context, accountID string) (*model.DashboardAggregate, error) {
	var agg model.DashboardAggregate
	err := r.db.GetContext(ctx, &agg, `
		SELECT
			COUNT(*) AS total_sessions,
			COALESCE(SUM(approach_count), 0) AS total_approaches,
			COALESCE(SUM(EXTRACT(EPOCH FROM (COALESCE(ended_at, NOW()) - started_at))), 0)::bigint AS total_seconds
		FROM sessions
		WHERE account_id = $1 AND status != 'abandoned'
	`, accountID)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *statsRepo) OutcomeCounts(ctx context.Context, accountID string) ([]model.OutcomeCount, error) {
	var counts []model.OutcomeCount
	err := r.db.SelectContext(ctx, &counts, `
		SELECT a.outcome, COUNT(*) AS count
		FROM approaches a
		JOIN sessions s ON s.id = a.session_id
		WHERE s.account_id = $1 AND a.outcome IS NOT NULL AND s.status != 'abandoned'
		GROUP BY a.outcome
	`, accountID)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
