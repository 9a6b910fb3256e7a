package model

import (
	"time"

	"github.com/lib/pq"
)

type Approach struct {
	ID        string         `db:"id" json:"id"`
	SessionID string         `db:"session_id" json:"sessionId"`
	Timestamp time.Time      `db:"ts" json:"timestamp"`
	Outcome   *Outcome       `db:"outcome" json:"outcome,omitempty"`
	Mood      *int           `db:"mood" json:"mood,omitempty"`
	Note      *string        `db:"note" json:"note,omitempty"`
	Tags      pq.StringArray `db:"tags" json:"tags,omitempty"`
	Latitude  *float64       `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64       `db:"longitude" json:"longitude,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

type CreateApproachParams struct {
	SessionID string
	// Timestamp may be in the past for backfilled approaches. Zero means now.
	Timestamp time.Time
	Outcome   *Outcome
	Mood      *int
	Note      *string
	Tags      []string
	Latitude  *float64
	Longitude *float64
}

type UpdateApproachParams struct {
	Outcome *Outcome
	Mood    *int
	Note    *string
	Tags    []string
}
