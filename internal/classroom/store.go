package classroom

import (
	"context"
	"time"
)

// Store is the persistence contract of the classroom API. Inserts return
// ErrDuplicate when a natural key already exists and deletes return ErrNoRows
// when nothing matched, so callers never need a separate existence check.
type Store interface {
	Ping(ctx context.Context) error

	ListMembers(ctx context.Context, f MemberFilter) ([]Member, error)
	InsertMember(ctx context.Context, m Member) error
	DeleteMember(ctx context.Context, id string) error

	ListCommittee(ctx context.Context) ([]CommitteeMember, error)
	InsertCommitteeMember(ctx context.Context, c CommitteeMember) error
	DeleteCommitteeMember(ctx context.Context, id int64) error

	ListActivities(ctx context.Context, f ActivityFilter) ([]Activity, error)
	InsertActivity(ctx context.Context, a Activity) error
	DeleteActivity(ctx context.Context, id int64) error
	// ActivityMonthCounts groups activities dated on or after since by month, ascending.
	ActivityMonthCounts(ctx context.Context, since time.Time) ([]MonthCount, error)

	ListSchedules(ctx context.Context, f ScheduleFilter) ([]DutySchedule, error)
	InsertSchedule(ctx context.Context, s DutySchedule) error
	DeleteSchedule(ctx context.Context, id int64) error
	ScheduleStatusCounts(ctx context.Context) (StatusCounts, error)

	// ListMessages returns messages newest first.
	ListMessages(ctx context.Context) ([]Message, error)
	InsertMessage(ctx context.Context, m Message) error

	// DashboardCounts counts activities dated within [monthStart, monthEnd).
	DashboardCounts(ctx context.Context, monthStart, monthEnd time.Time) (Dashboard, error)

	AppendChat(ctx context.Context, e ChatEntry) error

	// Reset removes every row from every table.
	Reset(ctx context.Context) error
}
