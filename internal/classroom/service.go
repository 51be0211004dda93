package classroom

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// UserDirectory resolves the display name of a login account.
type UserDirectory interface {
	Username(userID string) (string, bool)
}

// NewMember is the create payload of a class member.
type NewMember struct {
	ID    string `json:"id" validate:"required,max=50"`
	Name  string `json:"name" validate:"required,max=100"`
	Role  string `json:"role" validate:"required"`
	Phone string `json:"phone" validate:"max=20"`
	Email string `json:"email" validate:"max=100"`
}

// NewCommitteeMember is the create payload of a committee entry.
type NewCommitteeMember struct {
	StudentID        string `json:"student_id" validate:"required,max=50"`
	Name             string `json:"name" validate:"required,max=100"`
	Position         string `json:"position" validate:"required,max=100"`
	Responsibilities string `json:"responsibilities"`
}

// NewActivity is the create payload of an activity.
type NewActivity struct {
	Name        string `json:"name" validate:"required,max=200"`
	Type        string `json:"type" validate:"required,max=50"`
	Date        string `json:"date" validate:"required"`
	Creator     string `json:"creator" validate:"max=100"`
	Description string `json:"description"`
}

// NewSchedule is the create payload of a duty schedule.
type NewSchedule struct {
	Date      string `json:"date" validate:"required"`
	Personnel string `json:"personnel" validate:"required,max=200"`
	Task      string `json:"task"`
	Status    string `json:"status"`
}

// NewMessage is the create payload of a guestbook message.
type NewMessage struct {
	Content string `json:"content" validate:"required"`
	UserID  string `json:"userId" validate:"required,max=50"`
}

// Service validates requests and coordinates the store.
type Service struct {
	store    Store
	users    UserDirectory
	now      func() time.Time
	validate *validator.Validate
}

// NewService creates a service backed by a store. now defaults to time.Now.
func NewService(store Store, users UserDirectory, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{store: store, users: users, now: now, validate: v}
}

// Store exposes the underlying store.
func (s *Service) Store() Store { return s.store }

// Ping reports store health.
func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// ---------- dashboard ----------

// Dashboard returns the headline counts.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	start, end := monthBounds(s.now())
	return s.store.DashboardCounts(ctx, start, end)
}

// ---------- members ----------

// ListMembers returns members matching the filter.
func (s *Service) ListMembers(ctx context.Context, f MemberFilter) ([]Member, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.Role = strings.TrimSpace(f.Role)
	return s.store.ListMembers(ctx, f)
}

// CreateMember adds a member; the id must be unused.
func (s *Service) CreateMember(ctx context.Context, in NewMember) error {
	trim(&in.ID, &in.Name, &in.Role, &in.Phone, &in.Email)
	if err := s.check(in); err != nil {
		return err
	}
	if !validRole(in.Role) {
		return validationf("role must be %q or %q", RoleTeacher, RoleStudent)
	}
	err := s.store.InsertMember(ctx, Member{
		ID: in.ID, Name: in.Name, Role: in.Role, Phone: in.Phone, Email: in.Email,
	})
	if errors.Is(err, ErrDuplicate) {
		return conflict("member id already exists")
	}
	return err
}

// DeleteMember removes a member by id.
func (s *Service) DeleteMember(ctx context.Context, id string) error {
	err := s.store.DeleteMember(ctx, id)
	if errors.Is(err, ErrNoRows) {
		return notFound("member not found")
	}
	return err
}

// ---------- committee ----------

// ListCommittee returns the committee newest first.
func (s *Service) ListCommittee(ctx context.Context) ([]CommitteeMember, error) {
	return s.store.ListCommittee(ctx)
}

// CreateCommitteeMember adds a committee entry; one per student.
func (s *Service) CreateCommitteeMember(ctx context.Context, in NewCommitteeMember) error {
	trim(&in.StudentID, &in.Name, &in.Position, &in.Responsibilities)
	if err := s.check(in); err != nil {
		return err
	}
	err := s.store.InsertCommitteeMember(ctx, CommitteeMember{
		StudentID: in.StudentID, Name: in.Name, Position: in.Position, Responsibilities: in.Responsibilities,
	})
	if errors.Is(err, ErrDuplicate) {
		return conflict("student is already on the committee")
	}
	return err
}

// DeleteCommitteeMember removes a committee entry by row id.
func (s *Service) DeleteCommitteeMember(ctx context.Context, id string) error {
	const msg = "committee member not found"
	n, ok := parseRowID(id)
	if !ok {
		return notFound(msg)
	}
	err := s.store.DeleteCommitteeMember(ctx, n)
	if errors.Is(err, ErrNoRows) {
		return notFound(msg)
	}
	return err
}

// ---------- activities ----------

// ListActivities returns activities matching the filter.
func (s *Service) ListActivities(ctx context.Context, f ActivityFilter) ([]Activity, error) {
	trim(&f.StartDate, &f.EndDate, &f.Type)
	if err := checkDates(f.StartDate, f.EndDate); err != nil {
		return nil, err
	}
	return s.store.ListActivities(ctx, f)
}

// CreateActivity adds an activity.
func (s *Service) CreateActivity(ctx context.Context, in NewActivity) error {
	trim(&in.Name, &in.Type, &in.Date, &in.Creator, &in.Description)
	if err := s.check(in); err != nil {
		return err
	}
	if err := checkDates(in.Date); err != nil {
		return err
	}
	return s.store.InsertActivity(ctx, Activity{
		Name: in.Name, Type: in.Type, Date: in.Date, Creator: in.Creator, Description: in.Description,
	})
}

// DeleteActivity removes an activity by id.
func (s *Service) DeleteActivity(ctx context.Context, id string) error {
	const msg = "activity not found"
	n, ok := parseRowID(id)
	if !ok {
		return notFound(msg)
	}
	err := s.store.DeleteActivity(ctx, n)
	if errors.Is(err, ErrNoRows) {
		return notFound(msg)
	}
	return err
}

// ActivityStats counts activities per month over the trailing window.
func (s *Service) ActivityStats(ctx context.Context) ([]MonthCount, error) {
	return s.store.ActivityMonthCounts(ctx, statsSince(s.now()))
}

// ---------- schedules ----------

// ListSchedules returns duty schedules matching the filter.
func (s *Service) ListSchedules(ctx context.Context, f ScheduleFilter) ([]DutySchedule, error) {
	trim(&f.StartDate, &f.EndDate, &f.Status)
	if err := checkDates(f.StartDate, f.EndDate); err != nil {
		return nil, err
	}
	return s.store.ListSchedules(ctx, f)
}

// CreateSchedule adds a duty schedule, defaulting to not started.
func (s *Service) CreateSchedule(ctx context.Context, in NewSchedule) error {
	trim(&in.Date, &in.Personnel, &in.Task, &in.Status)
	if err := s.check(in); err != nil {
		return err
	}
	if err := checkDates(in.Date); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = StatusNotStarted
	}
	if !validStatus(in.Status) {
		return validationf("status must be one of %s, %s, %s", StatusNotStarted, StatusInProgress, StatusCompleted)
	}
	return s.store.InsertSchedule(ctx, DutySchedule{
		Date: in.Date, Personnel: in.Personnel, Task: in.Task, Status: in.Status,
	})
}

// DeleteSchedule removes a duty schedule by id.
func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	const msg = "schedule not found"
	n, ok := parseRowID(id)
	if !ok {
		return notFound(msg)
	}
	err := s.store.DeleteSchedule(ctx, n)
	if errors.Is(err, ErrNoRows) {
		return notFound(msg)
	}
	return err
}

// ScheduleStats returns per-status counts and percentages.
func (s *Service) ScheduleStats(ctx context.Context) (ScheduleStats, error) {
	sc, err := s.store.ScheduleStatusCounts(ctx)
	if err != nil {
		return ScheduleStats{}, err
	}
	return NewScheduleStats(sc), nil
}

// ---------- messages ----------

// ListMessages returns messages newest first with usernames resolved.
func (s *Service) ListMessages(ctx context.Context) ([]Message, error) {
	msgs, err := s.store.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	if s.users != nil {
		for i := range msgs {
			if name, ok := s.users.Username(msgs[i].UserID); ok {
				msgs[i].Username = name
			}
		}
	}
	return msgs, nil
}

// CreateMessage appends a message stamped with the server clock.
func (s *Service) CreateMessage(ctx context.Context, in NewMessage) error {
	trim(&in.Content, &in.UserID)
	if err := s.check(in); err != nil {
		return err
	}
	return s.store.InsertMessage(ctx, Message{
		Content: in.Content, UserID: in.UserID, CreatedAt: s.now().UTC(),
	})
}

// ArchiveChat stores a broadcast chat line.
func (s *Service) ArchiveChat(ctx context.Context, e ChatEntry) error {
	return s.store.AppendChat(ctx, e)
}

// check runs struct validation and reports failing fields by JSON name.
// Missing fields are reported before over-long ones.
func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}
	var missing []string
	var tooLong validator.FieldError
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "required":
			missing = append(missing, fe.Field())
		case fe.Tag() == "max" && tooLong == nil:
			tooLong = fe
		}
	}
	if len(missing) > 0 {
		return validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if tooLong != nil {
		return validationf("%s must be at most %s characters", tooLong.Field(), tooLong.Param())
	}
	return validationf("invalid field: %s", verrs[0].Field())
}

func checkDates(dates ...string) error {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return validationf("invalid date %q, expected YYYY-MM-DD", d)
		}
	}
	return nil
}

func parseRowID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
