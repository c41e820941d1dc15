package workSessionService

import (
	"sort"
	"time"

	"golang.org/x/net/context"

	workSession "WorkHoursMonitor/internal/api/work_session"
	"WorkHoursMonitor/internal/entity"
)

// GetAdminWorkHours reports the day's hours of every user who worked, or of
// userID alone when given.
func (s *workSessionService) GetAdminWorkHours(ctx context.Context, date, userID string) ([]workSession.UserWorkHours, error) {
	day, from, to, err := dayBounds(date, s.clock.Now(), s.location)
	if err != nil {
		return nil, err
	}

	sessions, directory, err := s.sessionsWithUsers(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]entity.WorkSession)
	for _, session := range sessions {
		byUser[session.UserID] = append(byUser[session.UserID], session)
	}

	report := make([]workSession.UserWorkHours, 0, len(byUser))
	for id, own := range byUser {
		user := resolveUser(directory, id, own[0])
		report = append(report, workSession.UserWorkHours{
			DailyWorkHours: workSession.NewDailyWorkHours(user, day, own),
			Role:           user.Role,
			ShiftStart:     user.ShiftStart,
			ShiftEnd:       user.ShiftEnd,
		})
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].UserName != report[j].UserName {
			return report[i].UserName < report[j].UserName
		}
		return report[i].UserID < report[j].UserID
	})

	return report, nil
}

// GetCalendar groups the sessions started between startDate and endDate,
// both inclusive, by local start day and user.
func (s *workSessionService) GetCalendar(ctx context.Context, startDate, endDate, userID string) ([]workSession.CalendarEntry, error) {
	now := s.clock.Now()
	_, from, _, err := dayBounds(startDate, now, s.location)
	if err != nil {
		return nil, err
	}
	_, _, to, err := dayBounds(endDate, now, s.location)
	if err != nil {
		return nil, err
	}
	if !to.After(from) || from.AddDate(0, 0, MaxCalendarDays).Before(to) {
		return nil, workSession.ErrInvalidDateRange
	}

	sessions, directory, err := s.sessionsWithUsers(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	type key struct{ date, userID string }
	index := make(map[key]int)
	entries := []workSession.CalendarEntry{}
	for _, session := range sessions {
		k := key{session.StartTime.In(s.location).Format(workSession.DateLayout), session.UserID}
		i, ok := index[k]
		if !ok {
			user := resolveUser(directory, session.UserID, session)
			i = len(entries)
			index[k] = i
			entries = append(entries, workSession.CalendarEntry{
				Date:     k.date,
				UserID:   user.ID,
				UserName: user.DisplayName(),
				Role:     user.Role,
				Sessions: []workSession.CalendarSession{},
			})
		}

		entry := &entries[i]
		entry.TotalActiveSeconds += session.TotalActiveTime
		entry.Sessions = append(entry.Sessions, workSession.CalendarSession{
			ID:              session.ID,
			StartTime:       session.StartTime,
			EndTime:         session.EndTime,
			Status:          session.Status,
			TotalActiveTime: session.TotalActiveTime,
		})
	}

	for i := range entries {
		entries[i].TotalHours = workSession.SecondsToHours(entries[i].TotalActiveSeconds)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].UserName < entries[j].UserName
	})

	return entries, nil
}

// GetStatistics counts users by role and today's sessions. Paused sessions
// count as active.
func (s *workSessionService) GetStatistics(ctx context.Context) (workSession.Statistics, error) {
	roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return workSession.Statistics{}, err
	}

	_, today, _, err := dayBounds("", s.clock.Now(), s.location)
	if err != nil {
		return workSession.Statistics{}, err
	}

	byStatus, err := s.repo.CountSessionsByStatusSince(ctx, today)
	if err != nil {
		return workSession.Statistics{}, err
	}

	stats := workSession.Statistics{
		TotalAdmins:            roles[entity.RoleAdmin],
		TotalManagers:          roles[entity.RoleManager],
		TotalEmployees:         roles[entity.RoleEmployee],
		ActiveSessionsToday:    byStatus[entity.SessionActive] + byStatus[entity.SessionPaused],
		CompletedSessionsToday: byStatus[entity.SessionCompleted],
	}
	for _, n := range roles {
		stats.TotalUsers += n
	}

	return stats, nil
}

// sessionsWithUsers loads the sessions started in [from, to) together with
// the users they belong to, narrowed to userID when it is set.
func (s *workSessionService) sessionsWithUsers(ctx context.Context, userID string, from, to time.Time) ([]entity.WorkSession, map[string]entity.User, error) {
	if userID != "" {
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		sessions, err := s.repo.ListSessionsBetween(ctx, []string{userID}, from, to)
		if err != nil {
			return nil, nil, err
		}
		return sessions, map[string]entity.User{user.ID: user}, nil
	}

	sessions, err := s.repo.ListAllSessionsBetween(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}

	users, err := s.users.ListUsers(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	directory := make(map[string]entity.User, len(users))
	for _, u := range users {
		directory[u.ID] = u
	}

	return sessions, directory, nil
}

// resolveUser falls back to the name stored on the session for users that
// have since been deleted.
func resolveUser(directory map[string]entity.User, userID string, session entity.WorkSession) entity.User {
	if user, ok := directory[userID]; ok {
		return user
	}
	return entity.User{ID: userID, Username: session.UserName}
}
