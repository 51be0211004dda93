package classroom

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Seed inserts the demo roster, committee, one activity and one duty
// schedule dated today. Rows that already exist are skipped, so repeated runs
// add nothing. With reset, every table is emptied first.
func Seed(ctx context.Context, s Store, today time.Time, reset bool) error {
	if reset {
		if err := s.Reset(ctx); err != nil {
			return err
		}
	}

	members := []Member{
		{ID: "T001", Name: "王老师", Role: RoleTeacher, Phone: "13800138001", Email: "wang@school.com"},
		{ID: "S001", Name: "张三", Role: RoleStudent, Phone: "13900139001", Email: "zhang@school.com"},
		{ID: "S002", Name: "李四", Role: RoleStudent, Phone: "13700137001", Email: "li@school.com"},
	}
	for _, m := range members {
		if err := skipDuplicate(s.InsertMember(ctx, m)); err != nil {
			return errors.Wrapf(err, "seed member %s", m.ID)
		}
	}

	committee := []CommitteeMember{
		{StudentID: "S001", Name: "张三", Position: "班长", Responsibilities: "负责班级日常管理"},
		{StudentID: "S002", Name: "李四", Position: "学习委员", Responsibilities: "负责作业收发"},
	}
	for _, c := range committee {
		if err := skipDuplicate(s.InsertCommitteeMember(ctx, c)); err != nil {
			return errors.Wrapf(err, "seed committee %s", c.StudentID)
		}
	}

	date := today.Format(DateLayout)
	activity := Activity{Name: "开学班会", Type: "会议", Date: date, Creator: "王老师", Description: "新学期安排"}
	activities, err := s.ListActivities(ctx, ActivityFilter{StartDate: date, EndDate: date})
	if err != nil {
		return errors.Wrap(err, "seed activity")
	}
	if !hasActivity(activities, activity) {
		if err := s.InsertActivity(ctx, activity); err != nil {
			return errors.Wrap(err, "seed activity")
		}
	}

	schedule := DutySchedule{Date: date, Personnel: "张三,李四", Task: "打扫教室卫生", Status: StatusInProgress}
	schedules, err := s.ListSchedules(ctx, ScheduleFilter{StartDate: date, EndDate: date})
	if err != nil {
		return errors.Wrap(err, "seed schedule")
	}
	if !hasSchedule(schedules, schedule) {
		if err := s.InsertSchedule(ctx, schedule); err != nil {
			return errors.Wrap(err, "seed schedule")
		}
	}
	return nil
}

func hasActivity(rows []Activity, a Activity) bool {
	for _, r := range rows {
		if r.Name == a.Name && r.Date == a.Date {
			return true
		}
	}
	return false
}

func hasSchedule(rows []DutySchedule, sch DutySchedule) bool {
	for _, r := range rows {
		if r.Date == sch.Date && r.Personnel == sch.Personnel && r.Task == sch.Task {
			return true
		}
	}
	return false
}

func skipDuplicate(err error) error {
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}
