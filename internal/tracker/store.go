package tracker

import (
	"context"
	"time"

	"github.com/fieldtrack/tracker-go/internal/model"
)

// StartParams are the fields a new session may be created with.
type StartParams struct {
	Goal       *int    `json:"goal,omitempty"`
	Location   *string `json:"location,omitempty"`
	Intentions *string `json:"intentions,omitempty"`
}

// ApproachData are the optional fields attached to a logged approach.
// Timestamp may be backdated for approaches logged after the fact.
type ApproachData struct {
	Outcome   *model.Outcome `json:"outcome,omitempty"`
	Mood      *int           `json:"mood,omitempty"`
	Note      *string        `json:"note,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Latitude  *float64       `json:"lat,omitempty"`
	Longitude *float64       `json:"lng,omitempty"`
}

// ApproachPatch is a partial update of an already-logged approach.
type ApproachPatch struct {
	Outcome *model.Outcome `json:"outcome,omitempty"`
	Mood    *int           `json:"mood,omitempty"`
	Note    *string        `json:"note,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
}

// ActiveResult is a session together with its ordered approach log.
// Session is nil when no session is active.
type ActiveResult struct {
	Session    *model.Session   `json:"session"`
	Approaches []model.Approach `json:"approaches"`
}

// EndResult is the closing state of an ended session.
type EndResult struct {
	Session *model.Session        `json:"session"`
	Summary *model.SessionSummary `json:"summary"`
}

// Store is the remote session store. It owns durable state and wins all
// conflicts; the tracker only mirrors it.
type Store interface {
	ActiveSession(ctx context.Context) (*ActiveResult, error)
	StartSession(ctx context.Context, params StartParams) (*model.Session, error)
	UpdateSession(ctx context.Context, sessionID string, goal *int, location *string) (*model.Session, error)
	EndSession(ctx context.Context, sessionID string) (*EndResult, error)
	ReactivateSession(ctx context.Context, sessionID string) (*ActiveResult, error)
	AbandonSession(ctx context.Context, sessionID string) (*model.Session, error)
	CreateApproach(ctx context.Context, sessionID string, data ApproachData) (*model.Approach, error)
	UpdateApproach(ctx context.Context, approachID string, patch ApproachPatch) (*model.Approach, error)
}
