package model

import (
	"time"
)

type Account struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	TokenHash       string     `db:"token_hash" json:"-"`
	PasswordHash    *string    `db:"password_hash" json:"-"`
	RateLimitPerMin int        `db:"rate_limit_per_minute" json:"rateLimitPerMinute"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
	DisabledAt      *time.Time `db:"disabled_at" json:"disabledAt,omitempty"`
}

type CreateAccountParams struct {
	Name            string
	TokenHash       string
	PasswordHash    *string
	RateLimitPerMin int
}
