package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fieldtrack/tracker-go/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	FindActiveByAccountID(ctx context.Context, accountID string) (*model.Session, error)
	FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Session, error)
	CountByAccountID(ctx context.Context, accountID string) (int, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	Update(ctx context.Context, id string, params model.UpdateSessionParams) (*model.Session, error)
	MarkEnded(ctx context.Context, id string) (*model.Session, error)
	MarkAbandoned(ctx context.Context, id string) (*model.Session, error)
	Reactivate(ctx context.Context, id string) (*model.Session, error)
	IncrementApproachCount(ctx context.Context, id string) error
	AbandonStale(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db sqlxDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindActiveByAccountID(ctx context.Context, accountID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions
		WHERE account_id = $1 AND status = 'active'
	`, accountID)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions
		WHERE account_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sessions WHERE account_id = $1
	`, accountID)
	return count, err
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (account_id, status, goal, location, intentions, started_at)
		VALUES ($1, 'active', $2, $3, $4, NOW())
		RETURNING *
	`, params.AccountID, params.Goal, params.Location, params.Intentions)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, id string, params model.UpdateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			goal = COALESCE($2, goal),
			location = COALESCE($3, location),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.Goal, params.Location)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) MarkEnded(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'ended',
			ended_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING *
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) MarkAbandoned(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'abandoned',
			ended_at = COALESCE(ended_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Reactivate(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'active',
			ended_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status IN ('ended', 'abandoned')
		RETURNING *
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) IncrementApproachCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			approach_count = approach_count + 1,
			updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (r *sessionRepo) AbandonStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = 'abandoned',
			ended_at = NOW(),
			updated_at = NOW()
		WHERE status = 'active' AND started_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE status = 'abandoned' AND ended_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
