package model

// DashboardAggregate is the raw rollup read from the store.
type DashboardAggregate struct {
	TotalSessions   int   `db:"total_sessions"`
	TotalApproaches int   `db:"total_approaches"`
	TotalSeconds    int64 `db:"total_seconds"`
}

type OutcomeCount struct {
	Outcome Outcome `db:"outcome"`
	Count   int     `db:"count"`
}

// DashboardStats is the cached, client-facing dashboard payload.
type DashboardStats struct {
	TotalSessions   int             `json:"totalSessions"`
	TotalApproaches int             `json:"totalApproaches"`
	TotalSeconds    int64           `json:"totalSeconds"`
	PerHour         float64         `json:"perHour"`
	Outcomes        map[Outcome]int `json:"outcomes"`
}
