package classroom

import (
	"math"
	"time"
)

// statsWindow is how far back the activity statistics reach.
const statsWindow = 6

func (sc *StatusCounts) add(status string, n int) {
	switch status {
	case StatusCompleted:
		sc.Completed += n
	case StatusInProgress:
		sc.InProgress += n
	case StatusNotStarted:
		sc.NotStarted += n
	}
	sc.Total += n
}

// NewScheduleStats derives per-status percentages. A zero total is treated as
// one so an empty table reports zeros.
func NewScheduleStats(sc StatusCounts) ScheduleStats {
	total := sc.Total
	if total == 0 {
		total = 1
	}
	return ScheduleStats{
		CompletedCount:       sc.Completed,
		InProgressCount:      sc.InProgress,
		NotStartedCount:      sc.NotStarted,
		CompletedPercentage:  percent(sc.Completed, total),
		InProgressPercentage: percent(sc.InProgress, total),
		NotStartedPercentage: percent(sc.NotStarted, total),
	}
}

// percent rounds half up, matching the frontend's rounding.
func percent(n, total int) int {
	return int(math.Floor(float64(n)/float64(total)*100 + 0.5))
}

// monthBounds returns the first instant of now's month and of the next month.
func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// statsSince is the earliest activity date included in the monthly statistics.
func statsSince(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, -statsWindow, 0)
}
