package classroom

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	members    map[string]Member
	committee  []CommitteeMember
	activities []Activity
	schedules  []DutySchedule
	messages   []Message
	chat       []ChatEntry
	seq        int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{members: make(map[string]Member)}
}

func (s *MemoryStore) nextID() int64 {
	s.seq++
	return s.seq
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) ListMembers(_ context.Context, f MemberFilter) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	res := []Member{}
	for _, m := range s.members {
		if search != "" && !strings.Contains(strings.ToLower(m.ID), search) &&
			!strings.Contains(strings.ToLower(m.Name), search) {
			continue
		}
		if f.Role != "" && m.Role != f.Role {
			continue
		}
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStore) InsertMember(_ context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[m.ID]; ok {
		return ErrDuplicate
	}
	s.members[m.ID] = m
	return nil
}

func (s *MemoryStore) DeleteMember(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return ErrNoRows
	}
	delete(s.members, id)
	return nil
}

func (s *MemoryStore) ListCommittee(context.Context) ([]CommitteeMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]CommitteeMember, 0, len(s.committee))
	for i := len(s.committee) - 1; i >= 0; i-- {
		res = append(res, s.committee[i])
	}
	return res, nil
}

func (s *MemoryStore) InsertCommitteeMember(_ context.Context, c CommitteeMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.committee {
		if existing.StudentID == c.StudentID {
			return ErrDuplicate
		}
	}
	c.ID = s.nextID()
	s.committee = append(s.committee, c)
	return nil
}

func (s *MemoryStore) DeleteCommitteeMember(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.committee {
		if c.ID == id {
			s.committee = append(s.committee[:i], s.committee[i+1:]...)
			return nil
		}
	}
	return ErrNoRows
}

func (s *MemoryStore) ListActivities(_ context.Context, f ActivityFilter) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []Activity{}
	for _, a := range s.activities {
		if !inRange(a.Date, f.StartDate, f.EndDate) || (f.Type != "" && a.Type != f.Type) {
			continue
		}
		res = append(res, a)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res, nil
}

func (s *MemoryStore) InsertActivity(_ context.Context, a Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID()
	s.activities = append(s.activities, a)
	return nil
}

func (s *MemoryStore) DeleteActivity(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.activities {
		if a.ID == id {
			s.activities = append(s.activities[:i], s.activities[i+1:]...)
			return nil
		}
	}
	return ErrNoRows
}

func (s *MemoryStore) ActivityMonthCounts(_ context.Context, since time.Time) ([]MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from := since.Format(DateLayout)
	counts := map[string]int{}
	for _, a := range s.activities {
		if a.Date >= from {
			counts[a.Date[:7]]++
		}
	}
	res := make([]MonthCount, 0, len(counts))
	for month, n := range counts {
		res = append(res, MonthCount{Month: month, Count: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Month < res[j].Month })
	return res, nil
}

func (s *MemoryStore) ListSchedules(_ context.Context, f ScheduleFilter) ([]DutySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []DutySchedule{}
	for _, d := range s.schedules {
		if !inRange(d.Date, f.StartDate, f.EndDate) || (f.Status != "" && d.Status != f.Status) {
			continue
		}
		res = append(res, d)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res, nil
}

func (s *MemoryStore) InsertSchedule(_ context.Context, d DutySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextID()
	s.schedules = append(s.schedules, d)
	return nil
}

func (s *MemoryStore) DeleteSchedule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.schedules {
		if d.ID == id {
			s.schedules = append(s.schedules[:i], s.schedules[i+1:]...)
			return nil
		}
	}
	return ErrNoRows
}

func (s *MemoryStore) ScheduleStatusCounts(context.Context) (StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sc StatusCounts
	for _, d := range s.schedules {
		sc.add(d.Status, 1)
	}
	return sc, nil
}

func (s *MemoryStore) ListMessages(context.Context) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]Message, len(s.messages))
	copy(res, s.messages)
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *MemoryStore) InsertMessage(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextID()
	s.messages = append(s.messages, m)
	return nil
}

func (s *MemoryStore) DashboardCounts(_ context.Context, monthStart, monthEnd time.Time) (Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Dashboard{
		TotalMembers:   len(s.members),
		CommitteeCount: len(s.committee),
		RecentMessages: len(s.messages),
	}
	for _, m := range s.members {
		switch m.Role {
		case RoleTeacher:
			d.TeacherCount++
		case RoleStudent:
			d.StudentCount++
		}
	}
	from, to := monthStart.Format(DateLayout), monthEnd.Format(DateLayout)
	for _, a := range s.activities {
		if a.Date >= from && a.Date < to {
			d.MonthlyActivities++
		}
	}
	return d, nil
}

func (s *MemoryStore) AppendChat(_ context.Context, e ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = append(s.chat, e)
	return nil
}

// ChatHistory returns a copy of the archived chat lines.
func (s *MemoryStore) ChatHistory() []ChatEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]ChatEntry, len(s.chat))
	copy(res, s.chat)
	return res
}

func (s *MemoryStore) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members = make(map[string]Member)
	s.committee = nil
	s.activities = nil
	s.schedules = nil
	s.messages = nil
	s.chat = nil
	s.seq = 0
	return nil
}

// inRange compares YYYY-MM-DD strings, which sort chronologically.
func inRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}
