package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/model"
)

func newApproachService(sessions *mockSessionRepo, approaches *mockApproachRepo) *ApproachService {
	return NewApproachService(fakeTransactor{}, sessions, approaches, nil)
}

func TestApproachService_Create(t *testing.T) {
	sessions := new(mockSessionRepo)
	approaches := new(mockApproachRepo)
	svc := newApproachService(sessions, approaches)

	sessions.On("FindByID", mock.Anything, "sess-1").
		Return(testSession("sess-1", "acct-1", model.SessionStatusActive), nil).Once()
	approaches.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateApproachParams) bool {
		return p.SessionID == "sess-1"
	})).Return(&model.Approach{ID: "appr-1", SessionID: "sess-1"}, nil).Once()
	sessions.On("IncrementApproachCount", mock.Anything, "sess-1").Return(nil).Once()

	approach, err := svc.Create(context.Background(), "acct-1", "sess-1", model.CreateApproachParams{})
	require.NoError(t, err)
	assert.Equal(t, "appr-1", approach.ID)
	sessions.AssertExpectations(t)
	approaches.AssertExpectations(t)
}

func TestApproachService_Create_SessionNotActive(t *testing.T) {
	sessions := new(mockSessionRepo)
	approaches := new(mockApproachRepo)
	svc := newApproachService(sessions, approaches)

	sessions.On("FindByID", mock.Anything, "sess-1").
		Return(testSession("sess-1", "acct-1", model.SessionStatusEnded), nil).Once()

	_, err := svc.Create(context.Background(), "acct-1", "sess-1", model.CreateApproachParams{})
	assert.Equal(t, apperrors.ErrCodeSessionNotActive, apperrors.GetCode(err))
	approaches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApproachService_Create_Forbidden(t *testing.T) {
	sessions := new(mockSessionRepo)
	svc := newApproachService(sessions, new(mockApproachRepo))

	sessions.On("FindByID", mock.Anything, "sess-1").
		Return(testSession("sess-1", "acct-other", model.SessionStatusActive), nil).Once()

	_, err := svc.Create(context.Background(), "acct-1", "sess-1", model.CreateApproachParams{})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestApproachService_Create_InvalidOutcome(t *testing.T) {
	svc := newApproachService(new(mockSessionRepo), new(mockApproachRepo))

	bad := model.Outcome("amazing")
	_, err := svc.Create(context.Background(), "acct-1", "sess-1", model.CreateApproachParams{Outcome: &bad})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestApproachService_Create_InvalidMood(t *testing.T) {
	svc := newApproachService(new(mockSessionRepo), new(mockApproachRepo))

	mood := 6
	_, err := svc.Create(context.Background(), "acct-1", "sess-1", model.CreateApproachParams{Mood: &mood})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestApproachService_Update(t *testing.T) {
	sessions := new(mockSessionRepo)
	approaches := new(mockApproachRepo)
	svc := newApproachService(sessions, approaches)

	outcome := model.OutcomeGood
	approaches.On("FindByID", mock.Anything, "appr-1").
		Return(&model.Approach{ID: "appr-1", SessionID: "sess-1"}, nil).Once()
	sessions.On("FindByID", mock.Anything, "sess-1").
		Return(testSession("sess-1", "acct-1", model.SessionStatusActive), nil).Once()
	approaches.On("Update", mock.Anything, "appr-1", model.UpdateApproachParams{Outcome: &outcome}).
		Return(&model.Approach{ID: "appr-1", SessionID: "sess-1", Outcome: &outcome}, nil).Once()

	approach, err := svc.Update(context.Background(), "acct-1", "appr-1", model.UpdateApproachParams{Outcome: &outcome})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeGood, *approach.Outcome)
}

func TestApproachService_Update_OtherAccount(t *testing.T) {
	sessions := new(mockSessionRepo)
	approaches := new(mockApproachRepo)
	svc := newApproachService(sessions, approaches)

	approaches.On("FindByID", mock.Anything, "appr-1").
		Return(&model.Approach{ID: "appr-1", SessionID: "sess-1"}, nil).Once()
	sessions.On("FindByID", mock.Anything, "sess-1").
		Return(testSession("sess-1", "acct-other", model.SessionStatusActive), nil).Once()

	_, err := svc.Update(context.Background(), "acct-1", "appr-1", model.UpdateApproachParams{})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	approaches.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproachService_Update_NotFound(t *testing.T) {
	approaches := new(mockApproachRepo)
	svc := newApproachService(new(mockSessionRepo), approaches)

	approaches.On("FindByID", mock.Anything, "missing").Return(nil, nil).Once()

	_, err := svc.Update(context.Background(), "acct-1", "missing", model.UpdateApproachParams{})
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}
