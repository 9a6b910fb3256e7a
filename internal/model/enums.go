package model

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusEnded     SessionStatus = "ended"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

type Outcome string

const (
	OutcomeBlowout   Outcome = "blowout"
	OutcomeShort     Outcome = "short"
	OutcomeGood      Outcome = "good"
	OutcomeNumber    Outcome = "number"
	OutcomeInstadate Outcome = "instadate"
)

// Outcomes lists every valid outcome in display order.
var Outcomes = []Outcome{
	OutcomeBlowout,
	OutcomeShort,
	OutcomeGood,
	OutcomeNumber,
	OutcomeInstadate,
}

func IsValidOutcome(s string) bool {
	for _, o := range Outcomes {
		if string(o) == s {
			return true
		}
	}
	return false
}

const (
	MoodMin = 1
	MoodMax = 5
)
