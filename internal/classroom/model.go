package classroom

import "time"

// Member roles.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Duty schedule statuses.
const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Member is a row of class_members.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CommitteeMember is a row of committee.
type CommitteeMember struct {
	ID               int64  `json:"id"`
	StudentID        string `json:"student_id"`
	Name             string `json:"name"`
	Position         string `json:"position"`
	Responsibilities string `json:"responsibilities"`
}

// Activity is a row of activities.
type Activity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
}

// DutySchedule is a row of schedules.
type DutySchedule struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	Personnel string `json:"personnel"`
	Task      string `json:"task"`
	Status    string `json:"status"`
}

// Message is a guestbook entry. Username is resolved from the credential
// directory when listing and is empty for unknown users.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatEntry is an archived broadcast chat line.
type ChatEntry struct {
	Username string    `json:"username"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}

// MemberFilter narrows ListMembers. Empty fields are ignored.
type MemberFilter struct {
	Search string
	Role   string
}

// ActivityFilter narrows ListActivities. Empty fields are ignored; dates are inclusive.
type ActivityFilter struct {
	StartDate string
	EndDate   string
	Type      string
}

// ScheduleFilter narrows ListSchedules. Empty fields are ignored; dates are inclusive.
type ScheduleFilter struct {
	StartDate string
	EndDate   string
	Status    string
}

// Dashboard holds the headline counts of the landing page.
type Dashboard struct {
	TotalMembers      int `json:"totalMembers"`
	TeacherCount      int `json:"teacherCount"`
	StudentCount      int `json:"studentCount"`
	CommitteeCount    int `json:"committeeCount"`
	MonthlyActivities int `json:"monthlyActivities"`
	RecentMessages    int `json:"recentMessages"`
}

// MonthCount is one bucket of the activity statistics.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// StatusCounts holds the number of schedules per status.
type StatusCounts struct {
	Completed  int
	InProgress int
	NotStarted int
	// Total counts every schedule row, including any status outside the three above.
	Total int
}

// ScheduleStats is the response of the schedule statistics endpoint.
type ScheduleStats struct {
	CompletedCount       int `json:"completedCount"`
	InProgressCount      int `json:"inProgressCount"`
	NotStartedCount      int `json:"notStartedCount"`
	CompletedPercentage  int `json:"completedPercentage"`
	InProgressPercentage int `json:"inProgressPercentage"`
	NotStartedPercentage int `json:"notStartedPercentage"`
}

func validRole(role string) bool {
	return role == RoleTeacher || role == RoleStudent
}

func validStatus(status string) bool {
	switch status {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}
