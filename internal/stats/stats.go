// Package stats derives live display statistics from a session and its
// approach log. Everything here is a pure function of its inputs and the
// supplied wall-clock time, safe to call at any frequency.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/fieldtrack/tracker-go/internal/model"
)

// Below this elapsed time the per-hour figure is the raw approach count;
// a rate over a couple of minutes swings too wildly to be useful.
const RateThreshold = 3 * time.Minute

type GoalProgress struct {
	Current    int  `json:"current"`
	Target     *int `json:"target"`
	Percentage int  `json:"percentage"`
}

type LiveStats struct {
	SessionDuration       string                `json:"sessionDuration"`
	ApproachesPerHour     float64               `json:"approachesPerHour"`
	TimeSinceLastApproach string                `json:"timeSinceLastApproach,omitempty"`
	Outcomes              map[model.Outcome]int `json:"outcomes"`
	Goal                  GoalProgress          `json:"goal"`
}

// Compute derives the live statistics for a session at the given instant.
func Compute(session *model.Session, approaches []model.Approach, now time.Time) LiveStats {
	count := len(approaches)
	elapsed := now.Sub(session.StartedAt)

	outcomes := make(map[model.Outcome]int, len(model.Outcomes))
	for _, o := range model.Outcomes {
		outcomes[o] = 0
	}

	var last time.Time
	for _, a := range approaches {
		if a.Outcome != nil {
			outcomes[*a.Outcome]++
		}
		if a.Timestamp.After(last) {
			last = a.Timestamp
		}
	}

	stats := LiveStats{
		SessionDuration:   FormatDuration(elapsed),
		ApproachesPerHour: perHour(count, elapsed),
		Outcomes:          outcomes,
		Goal:              goalProgress(count, session.Goal),
	}

	if !last.IsZero() {
		stats.TimeSinceLastApproach = FormatDuration(now.Sub(last))
	}

	return stats
}

// perHour returns the raw count until the session is old enough for a rate
// to mean anything, then the rate rounded to one decimal place.
func perHour(count int, elapsed time.Duration) float64 {
	if elapsed < RateThreshold {
		return float64(count)
	}
	rate := float64(count) / elapsed.Hours()
	return math.Round(rate*10) / 10
}

func goalProgress(count int, goal *int) GoalProgress {
	progress := GoalProgress{Current: count, Target: goal}
	if goal == nil || *goal <= 0 {
		return progress
	}

	pct := 100 * count / *goal
	if pct > 100 {
		pct = 100
	}
	progress.Percentage = pct
	return progress
}

// FormatDuration renders a duration as zero-padded HH:MM:SS. Hours grow
// without bound; there is no day rollover.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
