package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillWindows(t *testing.T) {
	// Monday 2025-10-20: last completed week ends Sunday the 19th.
	end := time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC)

	windows := backfillWindows(end, 3)
	require.Len(t, windows, 3)

	assert.Equal(t, "Oct 5th", windows[0].Label)
	assert.Equal(t, "Oct 12th", windows[1].Label)
	assert.Equal(t, "Oct 19th", windows[2].Label)

	// Oldest first, contiguous weeks.
	for i := 1; i < len(windows); i++ {
		assert.Equal(t,
			windows[i-1].End.AddDate(0, 0, 7).Format("2006-01-02"),
			windows[i].End.Format("2006-01-02"))
	}
}

func TestBackfillWindowsSingleWeekOnSunday(t *testing.T) {
	// A Sunday counts as a completed week ending that day.
	sunday := time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)

	windows := backfillWindows(sunday, 1)
	require.Len(t, windows, 1)
	assert.Equal(t, "Oct 19th", windows[0].Label)
	assert.Equal(t, time.Monday, windows[0].Start.Weekday())
	assert.Equal(t, time.Sunday, windows[0].End.Weekday())
}
