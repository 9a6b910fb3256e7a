package model

import (
	"time"
)

type Session struct {
	ID            string        `db:"id" json:"id"`
	AccountID     string        `db:"account_id" json:"accountId"`
	Status        SessionStatus `db:"status" json:"status"`
	Goal          *int          `db:"goal" json:"goal,omitempty"`
	Location      *string       `db:"location" json:"location,omitempty"`
	Intentions    *string       `db:"intentions" json:"intentions,omitempty"`
	ApproachCount int           `db:"approach_count" json:"approachCount"`
	StartedAt     time.Time     `db:"started_at" json:"startedAt"`
	EndedAt       *time.Time    `db:"ended_at" json:"endedAt,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

type CreateSessionParams struct {
	AccountID  string
	Goal       *int
	Location   *string
	Intentions *string
}

type UpdateSessionParams struct {
	Goal     *int
	Location *string
}

// SessionSummary is the closing summary returned when a session ends.
type SessionSummary struct {
	Count           int   `json:"count"`
	DurationSeconds int64 `json:"durationSeconds"`
}
