package workSessionService

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/auth"
	workSession "WorkHoursMonitor/internal/api/work_session"
	"WorkHoursMonitor/internal/entity"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.WorkSession
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[string]*entity.WorkSession)}
}

func (r *fakeRepo) put(s entity.WorkSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &s
}

func (r *fakeRepo) get(id string) (entity.WorkSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return entity.WorkSession{}, false
	}
	copied := *s
	copied.EyeDetectionLogs = append([]entity.DetectionLogEntry(nil), s.EyeDetectionLogs...)
	return copied, true
}

func (r *fakeRepo) CreateSession(_ context.Context, s entity.WorkSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.UserID == s.UserID && existing.Status == entity.SessionActive {
			return workSession.ErrActiveSessionExists
		}
	}
	r.sessions[s.ID] = &s
	return nil
}

func (r *fakeRepo) GetSession(_ context.Context, id string) (*entity.WorkSession, error) {
	s, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeRepo) UpdateSessionFields(_ context.Context, id string, u entity.WorkSessionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return workSession.ErrSessionNotFound
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.EndTime != nil {
		end := *u.EndTime
		s.EndTime = &end
	}
	if u.TotalActiveTime != nil {
		s.TotalActiveTime = *u.TotalActiveTime
	}
	return nil
}

func (r *fakeRepo) AppendDetectionLog(_ context.Context, id string, entry entity.DetectionLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return workSession.ErrSessionNotFound
	}
	s.EyeDetectionLogs = append(s.EyeDetectionLogs, entry)
	return nil
}

func (r *fakeRepo) FindOpenSession(_ context.Context, userID string) (*entity.WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID && (s.Status == entity.SessionActive || s.Status == entity.SessionPaused) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListSessionsSince(_ context.Context, userID string, since time.Time) ([]entity.WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.WorkSession{}
	for _, s := range r.sessions {
		if s.UserID == userID && !s.StartTime.Before(since) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *fakeRepo) ListSessionsBetween(_ context.Context, userIDs []string, from, to time.Time) ([]entity.WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	out := []entity.WorkSession{}
	for _, s := range r.sessions {
		if wanted[s.UserID] && !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeRepo) ListAllSessionsBetween(_ context.Context, from, to time.Time) ([]entity.WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.WorkSession{}
	for _, s := range r.sessions {
		if !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeRepo) CountSessionsByStatusSince(_ context.Context, since time.Time) (map[entity.SessionStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[entity.SessionStatus]int64{}
	for _, s := range r.sessions {
		if !s.StartTime.Before(since) {
			counts[s.Status]++
		}
	}
	return counts, nil
}

func (r *fakeRepo) CountOpenSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.Status == entity.SessionActive || s.Status == entity.SessionPaused {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) EnsureIndexes(context.Context) error { return nil }

type fakeUsers struct {
	users map[string]entity.User
}

func newFakeUsers(users ...entity.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]entity.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return entity.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListByManager(_ context.Context, managerID string) ([]entity.User, error) {
	out := []entity.User{}
	for _, u := range f.users {
		if u.ManagerID == managerID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUsers) ListUsers(_ context.Context, role entity.UserRole) ([]entity.User, error) {
	out := []entity.User{}
	for _, u := range f.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUsers) CountByRole(context.Context) (map[entity.UserRole]int, error) {
	counts := map[entity.UserRole]int{}
	for _, u := range f.users {
		counts[u.Role]++
	}
	return counts, nil
}

type fakeQueue struct {
	pending []entity.LostIncrement
	lost    map[string]int64
	limit   int64
}

func (q *fakeQueue) PendingReconciliations(_ context.Context, limit int64) ([]entity.LostIncrement, error) {
	q.limit = limit
	return q.pending, nil
}

func (q *fakeQueue) LostSecondsBySession(context.Context) (map[string]int64, error) {
	return q.lost, nil
}
