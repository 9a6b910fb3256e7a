package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/middleware"
	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/repository"
	"github.com/fieldtrack/tracker-go/internal/service"
)

const (
	testAccountID = "a81bc81b-dead-4e5d-abff-90865d1e13b1"
	testSessionID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

type fakeTransactor struct{}

func (fakeTransactor) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

// stubSessionRepo implements repository.SessionRepository through function
// fields; tests set only what the route under test touches.
type stubSessionRepo struct {
	findByID              func(ctx context.Context, id string) (*model.Session, error)
	findActiveByAccountID func(ctx context.Context, accountID string) (*model.Session, error)
	create                func(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	markEnded             func(ctx context.Context, id string) (*model.Session, error)
	incrementCount        func(ctx context.Context, id string) error
}

func (s *stubSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return s.findByID(ctx, id)
}

func (s *stubSessionRepo) FindActiveByAccountID(ctx context.Context, accountID string) (*model.Session, error) {
	return s.findActiveByAccountID(ctx, accountID)
}

func (s *stubSessionRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Session, error) {
	panic("not implemented")
}

func (s *stubSessionRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	panic("not implemented")
}

func (s *stubSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	return s.create(ctx, params)
}

func (s *stubSessionRepo) Update(ctx context.Context, id string, params model.UpdateSessionParams) (*model.Session, error) {
	panic("not implemented")
}

func (s *stubSessionRepo) MarkEnded(ctx context.Context, id string) (*model.Session, error) {
	return s.markEnded(ctx, id)
}

func (s *stubSessionRepo) MarkAbandoned(ctx context.Context, id string) (*model.Session, error) {
	panic("not implemented")
}

func (s *stubSessionRepo) Reactivate(ctx context.Context, id string) (*model.Session, error) {
	panic("not implemented")
}

func (s *stubSessionRepo) IncrementApproachCount(ctx context.Context, id string) error {
	return s.incrementCount(ctx, id)
}

func (s *stubSessionRepo) AbandonStale(ctx context.Context, olderThan time.Time) (int64, error) {
	panic("not implemented")
}

func (s *stubSessionRepo) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	panic("not implemented")
}

func (s *stubSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return s
}

type stubApproachRepo struct {
	findBySessionID func(ctx context.Context, sessionID string) ([]model.Approach, error)
	create          func(ctx context.Context, params model.CreateApproachParams) (*model.Approach, error)
}

func (s *stubApproachRepo) FindByID(ctx context.Context, id string) (*model.Approach, error) {
	panic("not implemented")
}

func (s *stubApproachRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Approach, error) {
	return s.findBySessionID(ctx, sessionID)
}

func (s *stubApproachRepo) Create(ctx context.Context, params model.CreateApproachParams) (*model.Approach, error) {
	return s.create(ctx, params)
}

func (s *stubApproachRepo) Update(ctx context.Context, id string, params model.UpdateApproachParams) (*model.Approach, error) {
	panic("not implemented")
}

func (s *stubApproachRepo) CountBySessionID(ctx context.Context, sessionID string) (int, error) {
	panic("not implemented")
}

func (s *stubApproachRepo) WithTx(tx *sqlx.Tx) repository.ApproachRepository {
	return s
}

func newTestHandler(sessions *stubSessionRepo, approaches *stubApproachRepo) *SessionHandler {
	sessionSvc := service.NewSessionService(fakeTransactor{}, sessions, approaches, nil)
	approachSvc := service.NewApproachService(fakeTransactor{}, sessions, approaches, nil)
	return NewSessionHandler(sessionSvc, approachSvc)
}

// serve routes the request through the handler with the account injected,
// the way the auth middleware does in production.
func serve(t *testing.T, h *SessionHandler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	account := &model.Account{ID: testAccountID}
	req = req.WithContext(context.WithValue(req.Context(), middleware.AccountContextKey, account))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestStartSession(t *testing.T) {
	sessions := &stubSessionRepo{
		findActiveByAccountID: func(ctx context.Context, accountID string) (*model.Session, error) {
			return nil, nil
		},
		create: func(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
			return &model.Session{
				ID:        testSessionID,
				AccountID: params.AccountID,
				Status:    model.SessionStatusActive,
				Goal:      params.Goal,
				StartedAt: time.Now(),
			}, nil
		},
	}
	h := newTestHandler(sessions, &stubApproachRepo{})

	rec := serve(t, h, http.MethodPost, "/", `{"goal": 10, "location": "high street"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, testSessionID, session.ID)
	require.NotNil(t, session.Goal)
	assert.Equal(t, 10, *session.Goal)
}

func TestStartSession_Conflict(t *testing.T) {
	existing := &model.Session{
		ID:        testSessionID,
		AccountID: testAccountID,
		Status:    model.SessionStatusActive,
		StartedAt: time.Now().Add(-time.Hour),
	}
	sessions := &stubSessionRepo{
		findActiveByAccountID: func(ctx context.Context, accountID string) (*model.Session, error) {
			return existing, nil
		},
	}
	h := newTestHandler(sessions, &stubApproachRepo{})

	rec := serve(t, h, http.MethodPost, "/", "{}")

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Code    apperrors.ErrorCode `json:"code"`
		Details *model.Session      `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeActiveSessionExists, resp.Code)
	// the existing session rides in details for resume-or-abandon
	require.NotNil(t, resp.Details)
	assert.Equal(t, testSessionID, resp.Details.ID)
}

func TestStartSession_MalformedBody(t *testing.T) {
	h := newTestHandler(&stubSessionRepo{}, &stubApproachRepo{})

	rec := serve(t, h, http.MethodPost, "/", `{"goal": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetActiveSession_None(t *testing.T) {
	sessions := &stubSessionRepo{
		findActiveByAccountID: func(ctx context.Context, accountID string) (*model.Session, error) {
			return nil, nil
		},
	}
	h := newTestHandler(sessions, &stubApproachRepo{})

	rec := serve(t, h, http.MethodGet, "/active", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var result service.ActiveSessionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Nil(t, result.Session)
}

func TestGetSession_InvalidID(t *testing.T) {
	h := newTestHandler(&stubSessionRepo{}, &stubApproachRepo{})

	rec := serve(t, h, http.MethodGet, "/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_Forbidden(t *testing.T) {
	sessions := &stubSessionRepo{
		findByID: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, AccountID: "someone-else", Status: model.SessionStatusActive}, nil
		},
	}
	h := newTestHandler(sessions, &stubApproachRepo{})

	rec := serve(t, h, http.MethodGet, "/"+testSessionID, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEndSession(t *testing.T) {
	started := time.Now().Add(-30 * time.Minute)
	sessions := &stubSessionRepo{
		findByID: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, AccountID: testAccountID, Status: model.SessionStatusActive, StartedAt: started}, nil
		},
		markEnded: func(ctx context.Context, id string) (*model.Session, error) {
			endedAt := started.Add(30 * time.Minute)
			return &model.Session{
				ID:            id,
				AccountID:     testAccountID,
				Status:        model.SessionStatusEnded,
				ApproachCount: 5,
				StartedAt:     started,
				EndedAt:       &endedAt,
			}, nil
		},
	}
	h := newTestHandler(sessions, &stubApproachRepo{})

	rec := serve(t, h, http.MethodPost, "/"+testSessionID+"/end", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var result service.EndSessionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Summary)
	assert.Equal(t, 5, result.Summary.Count)
	assert.Equal(t, int64(30*60), result.Summary.DurationSeconds)
}

func TestCreateApproach(t *testing.T) {
	sessions := &stubSessionRepo{
		findByID: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, AccountID: testAccountID, Status: model.SessionStatusActive}, nil
		},
		incrementCount: func(ctx context.Context, id string) error { return nil },
	}
	approaches := &stubApproachRepo{
		create: func(ctx context.Context, params model.CreateApproachParams) (*model.Approach, error) {
			return &model.Approach{
				ID:        "0ee496fd-b6ef-46c9-9ef8-188a759fd937",
				SessionID: params.SessionID,
				Outcome:   params.Outcome,
				Mood:      params.Mood,
				Timestamp: time.Now(),
			}, nil
		},
	}
	h := newTestHandler(sessions, approaches)

	rec := serve(t, h, http.MethodPost, "/"+testSessionID+"/approaches", `{"outcome": "number", "mood": 4}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var approach model.Approach
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approach))
	assert.Equal(t, testSessionID, approach.SessionID)
	require.NotNil(t, approach.Outcome)
	assert.Equal(t, model.OutcomeNumber, *approach.Outcome)
}

func TestCreateApproach_SessionEnded(t *testing.T) {
	sessions := &stubSessionRepo{
		findByID: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, AccountID: testAccountID, Status: model.SessionStatusEnded}, nil
		},
	}
	h := newTestHandler(sessions, &stubApproachRepo{})

	rec := serve(t, h, http.MethodPost, "/"+testSessionID+"/approaches", `{"outcome": "good"}`)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Code apperrors.ErrorCode `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeSessionNotActive, resp.Code)
}

func TestCreateApproach_InvalidOutcome(t *testing.T) {
	h := newTestHandler(&stubSessionRepo{}, &stubApproachRepo{})

	rec := serve(t, h, http.MethodPost, "/"+testSessionID+"/approaches", `{"outcome": "amazing"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
