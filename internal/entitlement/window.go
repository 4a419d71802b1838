package entitlement

import (
	"time"

	"fitcore/internal/plan"
)

// UsageWindow returns the half-open interval [start, end) containing at for
// the given limit period, in the gym's timezone. Weeks start on Monday,
// months on the first. Future instants produce future windows, so
// forward-dated bookings count against the window they fall in, not
// today's.
func UsageWindow(period plan.Period, at time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	at = at.In(loc)

	switch period {
	case plan.PeriodWeek:
		daysSinceMonday := (int(at.Weekday()) + 6) % 7
		start := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc).
			AddDate(0, 0, -daysSinceMonday)
		return start, start.AddDate(0, 0, 7)
	default:
		start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	}
}
