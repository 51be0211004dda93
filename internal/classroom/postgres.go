package classroom

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

// Repository persists classroom data in Postgres.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping verifies connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ---------- class members ----------

// ListMembers returns members matching the filter.
func (r *Repository) ListMembers(ctx context.Context, f MemberFilter) ([]Member, error) {
	q := newQuery(`SELECT id, name, role, phone, email FROM class_members`)
	if f.Search != "" {
		p := likePattern(f.Search)
		q.and("(id ILIKE ? OR name ILIKE ?)", p, p)
	}
	if f.Role != "" {
		q.and("role = ?", f.Role)
	}
	q.suffix("ORDER BY id")

	rows, err := r.db.QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, errors.Wrap(err, "query class members")
	}
	defer rows.Close()

	res := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Phone, &m.Email); err != nil {
			return nil, errors.Wrap(err, "scan class member")
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// InsertMember writes a new member.
func (r *Repository) InsertMember(ctx context.Context, m Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_members (id, name, role, phone, email)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Name, m.Role, m.Phone, m.Email)
	return insertErr(err, "insert class member")
}

// DeleteMember removes a member by id.
func (r *Repository) DeleteMember(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_members WHERE id = $1`, id)
	return deleteErr(res, err, "delete class member")
}

// ---------- committee ----------

// ListCommittee returns the committee newest first.
func (r *Repository) ListCommittee(ctx context.Context) ([]CommitteeMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, name, position, responsibilities
		FROM committee
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query committee")
	}
	defer rows.Close()

	res := []CommitteeMember{}
	for rows.Next() {
		var c CommitteeMember
		if err := rows.Scan(&c.ID, &c.StudentID, &c.Name, &c.Position, &c.Responsibilities); err != nil {
			return nil, errors.Wrap(err, "scan committee member")
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// InsertCommitteeMember writes a new committee entry.
func (r *Repository) InsertCommitteeMember(ctx context.Context, c CommitteeMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO committee (student_id, name, position, responsibilities)
		VALUES ($1, $2, $3, $4)
	`, c.StudentID, c.Name, c.Position, c.Responsibilities)
	return insertErr(err, "insert committee member")
}

// DeleteCommitteeMember removes a committee entry by row id.
func (r *Repository) DeleteCommitteeMember(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM committee WHERE id = $1`, id)
	return deleteErr(res, err, "delete committee member")
}

// ---------- activities ----------

// ListActivities returns activities matching the filter.
func (r *Repository) ListActivities(ctx context.Context, f ActivityFilter) ([]Activity, error) {
	q := newQuery(`SELECT id, name, type, to_char(date, 'YYYY-MM-DD'), creator, description FROM activities`)
	if err := andDateRange(q, f.StartDate, f.EndDate); err != nil {
		return nil, err
	}
	if f.Type != "" {
		q.and("type = ?", f.Type)
	}
	q.suffix("ORDER BY date, id")

	rows, err := r.db.QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, errors.Wrap(err, "query activities")
	}
	defer rows.Close()

	res := []Activity{}
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Date, &a.Creator, &a.Description); err != nil {
			return nil, errors.Wrap(err, "scan activity")
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// InsertActivity writes a new activity.
func (r *Repository) InsertActivity(ctx context.Context, a Activity) error {
	date, err := time.Parse(DateLayout, a.Date)
	if err != nil {
		return errors.Wrap(err, "parse activity date")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO activities (name, type, date, creator, description)
		VALUES ($1, $2, $3, $4, $5)
	`, a.Name, a.Type, date, a.Creator, a.Description)
	return insertErr(err, "insert activity")
}

// DeleteActivity removes an activity by id.
func (r *Repository) DeleteActivity(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	return deleteErr(res, err, "delete activity")
}

// ActivityMonthCounts groups activities by month.
func (r *Repository) ActivityMonthCounts(ctx context.Context, since time.Time) ([]MonthCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date, 'YYYY-MM') AS month, COUNT(*)
		FROM activities
		WHERE date >= $1
		GROUP BY month
		ORDER BY month ASC
	`, since)
	if err != nil {
		return nil, errors.Wrap(err, "query activity stats")
	}
	defer rows.Close()

	res := []MonthCount{}
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, errors.Wrap(err, "scan activity stats")
		}
		res = append(res, mc)
	}
	return res, rows.Err()
}

// ---------- schedules ----------

// ListSchedules returns duty schedules matching the filter.
func (r *Repository) ListSchedules(ctx context.Context, f ScheduleFilter) ([]DutySchedule, error) {
	q := newQuery(`SELECT id, to_char(date, 'YYYY-MM-DD'), personnel, task, status FROM schedules`)
	if err := andDateRange(q, f.StartDate, f.EndDate); err != nil {
		return nil, err
	}
	if f.Status != "" {
		q.and("status = ?", f.Status)
	}
	q.suffix("ORDER BY date, id")

	rows, err := r.db.QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, errors.Wrap(err, "query schedules")
	}
	defer rows.Close()

	res := []DutySchedule{}
	for rows.Next() {
		var s DutySchedule
		if err := rows.Scan(&s.ID, &s.Date, &s.Personnel, &s.Task, &s.Status); err != nil {
			return nil, errors.Wrap(err, "scan schedule")
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// InsertSchedule writes a new duty schedule.
func (r *Repository) InsertSchedule(ctx context.Context, s DutySchedule) error {
	date, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return errors.Wrap(err, "parse schedule date")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO schedules (date, personnel, task, status)
		VALUES ($1, $2, $3, $4)
	`, date, s.Personnel, s.Task, s.Status)
	return insertErr(err, "insert schedule")
}

// DeleteSchedule removes a duty schedule by id.
func (r *Repository) DeleteSchedule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	return deleteErr(res, err, "delete schedule")
}

// ScheduleStatusCounts counts schedules per status.
func (r *Repository) ScheduleStatusCounts(ctx context.Context) (StatusCounts, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM schedules GROUP BY status`)
	if err != nil {
		return StatusCounts{}, errors.Wrap(err, "query schedule stats")
	}
	defer rows.Close()

	var sc StatusCounts
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return StatusCounts{}, errors.Wrap(err, "scan schedule stats")
		}
		sc.add(status, n)
	}
	return sc, rows.Err()
}

// ---------- messages ----------

// ListMessages returns messages newest first.
func (r *Repository) ListMessages(ctx context.Context) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content, user_id, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query messages")
	}
	defer rows.Close()

	res := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Content, &m.UserID, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// InsertMessage appends a message.
func (r *Repository) InsertMessage(ctx context.Context, m Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (content, user_id, created_at)
		VALUES ($1, $2, $3)
	`, m.Content, m.UserID, m.CreatedAt)
	return insertErr(err, "insert message")
}

// ---------- aggregates ----------

// DashboardCounts collects the dashboard counts in one round trip.
func (r *Repository) DashboardCounts(ctx context.Context, monthStart, monthEnd time.Time) (Dashboard, error) {
	var d Dashboard
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM class_members),
			(SELECT COUNT(*) FROM class_members WHERE role = 'teacher'),
			(SELECT COUNT(*) FROM class_members WHERE role = 'student'),
			(SELECT COUNT(*) FROM committee),
			(SELECT COUNT(*) FROM activities WHERE date >= $1 AND date < $2),
			(SELECT COUNT(*) FROM messages)
	`, monthStart, monthEnd).Scan(
		&d.TotalMembers, &d.TeacherCount, &d.StudentCount,
		&d.CommitteeCount, &d.MonthlyActivities, &d.RecentMessages,
	)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "query dashboard")
	}
	return d, nil
}

// AppendChat archives a broadcast chat line.
func (r *Repository) AppendChat(ctx context.Context, e ChatEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_history (username, content, sent_at)
		VALUES ($1, $2, $3)
	`, e.Username, e.Content, e.SentAt)
	return errors.Wrap(err, "insert chat entry")
}

// Reset truncates every table and restarts identities.
func (r *Repository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		TRUNCATE class_members, committee, activities, schedules, messages, chat_history
		RESTART IDENTITY
	`)
	return errors.Wrap(err, "reset tables")
}

func andDateRange(q *query, start, end string) error {
	if start != "" {
		d, err := time.Parse(DateLayout, start)
		if err != nil {
			return errors.Wrap(err, "parse start date")
		}
		q.and("date >= ?", d)
	}
	if end != "" {
		d, err := time.Parse(DateLayout, end)
		if err != nil {
			return errors.Wrap(err, "parse end date")
		}
		q.and("date <= ?", d)
	}
	return nil
}

func insertErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.Wrap(ErrDuplicate, pgErr.ConstraintName)
	}
	return errors.Wrap(err, op)
}

func deleteErr(res sql.Result, err error, op string) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}
