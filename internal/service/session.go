package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/repository"
	"github.com/fieldtrack/tracker-go/internal/sse"
)

// Transactor runs a function inside a database transaction.
// *database.DB satisfies this.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// ActiveSessionResult pairs a session with its ordered approach log.
type ActiveSessionResult struct {
	Session    *model.Session   `json:"session"`
	Approaches []model.Approach `json:"approaches"`
}

// EndSessionResult is returned when a session ends.
type EndSessionResult struct {
	Session *model.Session        `json:"session"`
	Summary *model.SessionSummary `json:"summary"`
}

type SessionService struct {
	db           Transactor
	sessionRepo  repository.SessionRepository
	approachRepo repository.ApproachRepository
	broker       *sse.Broker
}

func NewSessionService(
	db Transactor,
	sessionRepo repository.SessionRepository,
	approachRepo repository.ApproachRepository,
	broker *sse.Broker,
) *SessionService {
	return &SessionService{
		db:           db,
		sessionRepo:  sessionRepo,
		approachRepo: approachRepo,
		broker:       broker,
	}
}

// Start creates a new active session. At most one session may be active per
// account: the check and the insert run in the same transaction, and a
// conflict is reported as ACTIVE_SESSION_EXISTS with the existing session
// attached so the caller can offer resume or abandon.
func (s *SessionService) Start(ctx context.Context, accountID string, params model.CreateSessionParams) (*model.Session, error) {
	if params.Goal != nil && *params.Goal < 1 {
		return nil, apperrors.InvalidInput("goal", "must be a positive number")
	}

	var session *model.Session
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.sessionRepo.WithTx(tx)

		existing, err := repo.FindActiveByAccountID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("find active session: %w", err)
		}
		if existing != nil {
			return apperrors.ActiveSessionExists(existing)
		}

		params.AccountID = accountID
		session, err = repo.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("accountId", accountID).
		Msg("session started")

	s.publish(ctx, accountID, sse.EventSessionStarted, session)
	return session, nil
}

// GetActive returns the account's active session and its approaches, or a
// result with a nil session when none is active.
func (s *SessionService) GetActive(ctx context.Context, accountID string) (*ActiveSessionResult, error) {
	session, err := s.sessionRepo.FindActiveByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if session == nil {
		return &ActiveSessionResult{}, nil
	}

	approaches, err := s.approachRepo.FindBySessionID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("find approaches: %w", err)
	}

	return &ActiveSessionResult{Session: session, Approaches: approaches}, nil
}

// Get returns one session with its approaches. A session owned by another
// account is reported as forbidden, distinct from not found.
func (s *SessionService) Get(ctx context.Context, accountID, sessionID string) (*ActiveSessionResult, error) {
	session, err := s.findOwned(ctx, accountID, sessionID)
	if err != nil {
		return nil, err
	}

	approaches, err := s.approachRepo.FindBySessionID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("find approaches: %w", err)
	}

	return &ActiveSessionResult{Session: session, Approaches: approaches}, nil
}

// List returns the account's session history, newest first.
func (s *SessionService) List(ctx context.Context, accountID string, limit, offset int) ([]model.Session, int, error) {
	sessions, err := s.sessionRepo.FindByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	total, err := s.sessionRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// Update patches the goal and/or location of an owned session.
func (s *SessionService) Update(ctx context.Context, accountID, sessionID string, params model.UpdateSessionParams) (*model.Session, error) {
	if params.Goal != nil && *params.Goal < 1 {
		return nil, apperrors.InvalidInput("goal", "must be a positive number")
	}

	if _, err := s.findOwned(ctx, accountID, sessionID); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.Update(ctx, sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

// End closes an active session and returns the closing summary.
func (s *SessionService) End(ctx context.Context, accountID, sessionID string) (*EndSessionResult, error) {
	if _, err := s.findOwned(ctx, accountID, sessionID); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.MarkEnded(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	if session == nil {
		return nil, apperrors.SessionNotActive()
	}

	summary := &model.SessionSummary{
		Count:           session.ApproachCount,
		DurationSeconds: int64(session.EndedAt.Sub(session.StartedAt) / time.Second),
	}

	log.Info().
		Str("sessionId", session.ID).
		Int("count", summary.Count).
		Int64("durationSeconds", summary.DurationSeconds).
		Msg("session ended")

	result := &EndSessionResult{Session: session, Summary: summary}
	s.publish(ctx, accountID, sse.EventSessionEnded, result)
	return result, nil
}

// Reactivate re-opens an ended or abandoned session, restoring its
// approaches. Rejected when another session is already active.
func (s *SessionService) Reactivate(ctx context.Context, accountID, sessionID string) (*ActiveSessionResult, error) {
	if _, err := s.findOwned(ctx, accountID, sessionID); err != nil {
		return nil, err
	}

	var session *model.Session
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.sessionRepo.WithTx(tx)

		active, err := repo.FindActiveByAccountID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("find active session: %w", err)
		}
		if active != nil {
			return apperrors.ActiveSessionExists(active)
		}

		session, err = repo.Reactivate(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("reactivate session: %w", err)
		}
		if session == nil {
			return apperrors.SessionNotEnded()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	approaches, err := s.approachRepo.FindBySessionID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("find approaches: %w", err)
	}

	log.Info().Str("sessionId", session.ID).Msg("session reactivated")

	s.publish(ctx, accountID, sse.EventSessionReactivated, session)
	return &ActiveSessionResult{Session: session, Approaches: approaches}, nil
}

// Abandon marks a session abandoned regardless of its current status.
func (s *SessionService) Abandon(ctx context.Context, accountID, sessionID string) (*model.Session, error) {
	if _, err := s.findOwned(ctx, accountID, sessionID); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.MarkAbandoned(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("abandon session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	log.Info().Str("sessionId", session.ID).Msg("session abandoned")

	s.publish(ctx, accountID, sse.EventSessionAbandoned, session)
	return session, nil
}

func (s *SessionService) findOwned(ctx context.Context, accountID, sessionID string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if session.AccountID != accountID {
		return nil, apperrors.Forbidden("Session belongs to another account")
	}
	return session, nil
}

func (s *SessionService) publish(ctx context.Context, accountID, eventType string, payload any) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, accountID, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to publish session event")
	}
}
