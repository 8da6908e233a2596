package core

import (
	"time"

	"cloud.google.com/go/civil"
)

// PreparationDays is how long before a hearing the case must be on the desk.
// Chamber cases need a week regardless of the hearing kind.
func PreparationDays(t CaseType, s CaseStatus) int {
	if t.Effective() == CaseTypeChamber {
		return 7
	}
	if s == StatusDecision {
		return 2
	}
	return 1
}

// TodoDate subtracts prep days from due and moves a weekend result back to
// the preceding Friday.
func TodoDate(due civil.Date, prep int) civil.Date {
	d := due.AddDays(-prep)
	switch d.In(time.UTC).Weekday() {
	case time.Saturday:
		d = d.AddDays(-1)
	case time.Sunday:
		d = d.AddDays(-2)
	}
	return d
}
