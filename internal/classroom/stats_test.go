package classroom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewScheduleStats(t *testing.T) {
	tests := []struct {
		name   string
		counts StatusCounts
		want   ScheduleStats
	}{
		{
			name:   "empty table",
			counts: StatusCounts{},
			want:   ScheduleStats{},
		},
		{
			name:   "two completed one in progress one not started",
			counts: StatusCounts{Completed: 2, InProgress: 1, NotStarted: 1, Total: 4},
			want: ScheduleStats{
				CompletedCount: 2, InProgressCount: 1, NotStartedCount: 1,
				CompletedPercentage: 50, InProgressPercentage: 25, NotStartedPercentage: 25,
			},
		},
		{
			name:   "thirds round half up",
			counts: StatusCounts{Completed: 1, InProgress: 1, NotStarted: 1, Total: 3},
			want: ScheduleStats{
				CompletedCount: 1, InProgressCount: 1, NotStartedCount: 1,
				CompletedPercentage: 33, InProgressPercentage: 33, NotStartedPercentage: 33,
			},
		},
		{
			name:   "one in eight rounds 12.5 up",
			counts: StatusCounts{Completed: 1, NotStarted: 7, Total: 8},
			want: ScheduleStats{
				CompletedCount: 1, NotStartedCount: 7,
				CompletedPercentage: 13, NotStartedPercentage: 88,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewScheduleStats(tt.counts))
		})
	}
}

func TestStatusCountsAddTracksTotal(t *testing.T) {
	var sc StatusCounts
	sc.add(StatusCompleted, 2)
	sc.add(StatusNotStarted, 1)
	sc.add("archived", 3)

	assert.Equal(t, StatusCounts{Completed: 2, NotStarted: 1, Total: 6}, sc)
}

func TestMonthBounds(t *testing.T) {
	now := time.Date(2026, time.December, 17, 15, 4, 0, 0, time.UTC)
	start, end := monthBounds(now)

	assert.Equal(t, time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestStatsSince(t *testing.T) {
	now := time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.April, 16, 0, 0, 0, 0, time.UTC), statsSince(now))
}
