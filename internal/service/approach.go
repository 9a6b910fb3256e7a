package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/repository"
	"github.com/fieldtrack/tracker-go/internal/sse"
)

type ApproachService struct {
	db           Transactor
	sessionRepo  repository.SessionRepository
	approachRepo repository.ApproachRepository
	broker       *sse.Broker
}

func NewApproachService(
	db Transactor,
	sessionRepo repository.SessionRepository,
	approachRepo repository.ApproachRepository,
	broker *sse.Broker,
) *ApproachService {
	return &ApproachService{
		db:           db,
		sessionRepo:  sessionRepo,
		approachRepo: approachRepo,
		broker:       broker,
	}
}

// Create logs one approach against an active session. The insert and the
// denormalized count bump happen in the same transaction.
func (s *ApproachService) Create(ctx context.Context, accountID, sessionID string, params model.CreateApproachParams) (*model.Approach, error) {
	if err := validateApproachFields(params.Outcome, params.Mood); err != nil {
		return nil, err
	}

	var approach *model.Approach
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		sessions := s.sessionRepo.WithTx(tx)
		approaches := s.approachRepo.WithTx(tx)

		session, err := sessions.FindByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("find session: %w", err)
		}
		if session == nil {
			return apperrors.NotFound("Session")
		}
		if session.AccountID != accountID {
			return apperrors.Forbidden("Session belongs to another account")
		}
		if !session.IsActive() {
			return apperrors.SessionNotActive()
		}

		params.SessionID = sessionID
		approach, err = approaches.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("create approach: %w", err)
		}

		if err := sessions.IncrementApproachCount(ctx, sessionID); err != nil {
			return fmt.Errorf("increment approach count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("approachId", approach.ID).
		Str("sessionId", sessionID).
		Msg("approach logged")

	s.publish(ctx, accountID, sse.EventApproachLogged, approach)
	return approach, nil
}

// Update patches outcome, mood, note or tags on an existing approach.
func (s *ApproachService) Update(ctx context.Context, accountID, approachID string, params model.UpdateApproachParams) (*model.Approach, error) {
	if err := validateApproachFields(params.Outcome, params.Mood); err != nil {
		return nil, err
	}

	existing, err := s.approachRepo.FindByID(ctx, approachID)
	if err != nil {
		return nil, fmt.Errorf("find approach: %w", err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("Approach")
	}

	session, err := s.sessionRepo.FindByID(ctx, existing.SessionID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil || session.AccountID != accountID {
		return nil, apperrors.Forbidden("Approach belongs to another account")
	}

	approach, err := s.approachRepo.Update(ctx, approachID, params)
	if err != nil {
		return nil, fmt.Errorf("update approach: %w", err)
	}
	if approach == nil {
		return nil, apperrors.NotFound("Approach")
	}

	s.publish(ctx, accountID, sse.EventApproachUpdated, approach)
	return approach, nil
}

func validateApproachFields(outcome *model.Outcome, mood *int) error {
	if outcome != nil && !model.IsValidOutcome(string(*outcome)) {
		return apperrors.InvalidInput("outcome", "unknown outcome value")
	}
	if mood != nil && (*mood < model.MoodMin || *mood > model.MoodMax) {
		return apperrors.InvalidInput("mood", fmt.Sprintf("must be between %d and %d", model.MoodMin, model.MoodMax))
	}
	return nil
}

func (s *ApproachService) publish(ctx context.Context, accountID, eventType string, payload any) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, accountID, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to publish approach event")
	}
}
