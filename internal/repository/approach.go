package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fieldtrack/tracker-go/internal/model"
)

type ApproachRepository interface {
	FindByID(ctx context.Context, id string) (*model.Approach, error)
	FindBySessionID(ctx context.Context, sessionID string) ([]model.Approach, error)
	Create(ctx context.Context, params model.CreateApproachParams) (*model.Approach, error)
	Update(ctx context.Context, id string, params model.UpdateApproachParams) (*model.Approach, error)
	CountBySessionID(ctx context.Context, sessionID string) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ApproachRepository
}

type approachRepo struct {
	db sqlxDB
}

func NewApproachRepository(db *sqlx.DB) ApproachRepository {
	return &approachRepo{db: db}
}

func (r *approachRepo) WithTx(tx *sqlx.Tx) ApproachRepository {
	return &approachRepo{db: tx}
}

func (r *approachRepo) FindByID(ctx context.Context, id string) (*model.Approach, error) {
	var approach model.Approach
	err := r.db.GetContext(ctx, &approach, `
		SELECT * FROM approaches WHERE id = $1
	`, id)
	return HandleNotFound(&approach, err)
}

func (r *approachRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Approach, error) {
	var approaches []model.Approach
	err := r.db.SelectContext(ctx, &approaches, `
		SELECT * FROM approaches
		WHERE session_id = $1
		ORDER BY ts ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return approaches, nil
}

func (r *approachRepo) Create(ctx context.Context, params model.CreateApproachParams) (*model.Approach, error) {
	ts := params.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var approach model.Approach
	err := r.db.GetContext(ctx, &approach, `
		INSERT INTO approaches (session_id, ts, outcome, mood, note, tags, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.SessionID, ts, params.Outcome, params.Mood, params.Note,
		pq.Array(params.Tags), params.Latitude, params.Longitude)
	if err != nil {
		return nil, err
	}
	return &approach, nil
}

func (r *approachRepo) Update(ctx context.Context, id string, params model.UpdateApproachParams) (*model.Approach, error) {
	var approach model.Approach
	err := r.db.GetContext(ctx, &approach, `
		UPDATE approaches SET
			outcome = COALESCE($2, outcome),
			mood = COALESCE($3, mood),
			note = COALESCE($4, note),
			tags = COALESCE($5, tags),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.Outcome, params.Mood, params.Note, pq.Array(params.Tags))
	return HandleNotFound(&approach, err)
}

func (r *approachRepo) CountBySessionID(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM approaches WHERE session_id = $1
	`, sessionID)
	return count, err
}
