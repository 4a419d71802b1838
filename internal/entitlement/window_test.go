package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcore/internal/plan"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestUsageWindow_WeekAnchorsOnMonday(t *testing.T) {
	loc := berlin(t)

	// Sunday evening belongs to the week that started the previous Monday.
	at := time.Date(2026, 3, 8, 21, 30, 0, 0, loc)
	start, end := UsageWindow(plan.PeriodWeek, at, loc)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), end)
}

func TestUsageWindow_MondayStartsItsOwnWeek(t *testing.T) {
	loc := berlin(t)

	at := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	start, end := UsageWindow(plan.PeriodWeek, at, loc)

	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, loc), end)
}

func TestUsageWindow_MonthAnchorsOnFirst(t *testing.T) {
	loc := berlin(t)

	at := time.Date(2026, 2, 28, 12, 0, 0, 0, loc)
	start, end := UsageWindow(plan.PeriodMonth, at, loc)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, loc), end)
}

func TestUsageWindow_FutureInstantYieldsFutureWindow(t *testing.T) {
	loc := berlin(t)

	// A booking placed for next month must count against next month's
	// window, not the current one.
	at := time.Date(2026, 9, 15, 10, 0, 0, 0, loc)
	start, end := UsageWindow(plan.PeriodMonth, at, loc)

	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, loc), end)
}

func TestUsageWindow_ForeignZoneInstantNormalized(t *testing.T) {
	loc := berlin(t)

	// 23:30 UTC on the 31st is already the 1st in Berlin.
	at := time.Date(2026, 7, 31, 23, 30, 0, 0, time.UTC)
	start, _ := UsageWindow(plan.PeriodMonth, at, loc)

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, loc), start)
}
