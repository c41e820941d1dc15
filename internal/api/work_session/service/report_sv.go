package workSessionService

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	workSession "WorkHoursMonitor/internal/api/work_session"
	"WorkHoursMonitor/internal/entity"
	contextPkg "WorkHoursMonitor/pkg/context"
)

func (s *workSessionService) GetDailyWorkHours(ctx context.Context, userID, date string) (workSession.DailyWorkHours, error) {
	day, from, to, err := dayBounds(date, s.clock.Now(), s.location)
	if err != nil {
		return workSession.DailyWorkHours{}, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return workSession.DailyWorkHours{}, err
	}

	sessions, err := s.repo.ListSessionsBetween(ctx, []string{userID}, from, to)
	if err != nil {
		return workSession.DailyWorkHours{}, err
	}

	return workSession.NewDailyWorkHours(user, day, sessions), nil
}

// GetEmployeeWorkHours is the daily report of one employee as seen by their
// manager. Admins may read any employee.
func (s *workSessionService) GetEmployeeWorkHours(ctx context.Context, viewer entity.UserLoginData, employeeID, date string) (workSession.DailyWorkHours, error) {
	day, from, to, err := dayBounds(date, s.clock.Now(), s.location)
	if err != nil {
		return workSession.DailyWorkHours{}, err
	}

	employee, err := s.users.GetUserByID(ctx, employeeID)
	if err != nil {
		return workSession.DailyWorkHours{}, err
	}
	if viewer.Role != entity.RoleAdmin && employee.ManagerID != viewer.ID {
		s.log.WithFields(logrus.Fields{
			"request_id":  contextPkg.GetRequestID(ctx),
			"manager_id":  viewer.ID,
			"employee_id": employeeID,
		}).Warn("Manager requested work hours of an employee outside their team")
		return workSession.DailyWorkHours{}, workSession.ErrNotYourEmployee
	}

	sessions, err := s.repo.ListSessionsBetween(ctx, []string{employeeID}, from, to)
	if err != nil {
		return workSession.DailyWorkHours{}, err
	}

	return workSession.NewDailyWorkHours(employee, day, sessions), nil
}

func (s *workSessionService) GetTeamWorkHours(ctx context.Context, manager entity.UserLoginData, date string) (workSession.TeamWorkHours, error) {
	day, from, to, err := dayBounds(date, s.clock.Now(), s.location)
	if err != nil {
		return workSession.TeamWorkHours{}, err
	}

	team, err := s.users.ListByManager(ctx, manager.ID)
	if err != nil {
		return workSession.TeamWorkHours{}, err
	}

	ids := make([]string, 0, len(team))
	for _, member := range team {
		ids = append(ids, member.ID)
	}

	sessions, err := s.repo.ListSessionsBetween(ctx, ids, from, to)
	if err != nil {
		return workSession.TeamWorkHours{}, err
	}

	byUser := make(map[string][]entity.WorkSession, len(team))
	for _, session := range sessions {
		byUser[session.UserID] = append(byUser[session.UserID], session)
	}

	report := workSession.TeamWorkHours{
		ManagerID: manager.ID,
		Date:      day,
		Employees: make([]workSession.DailyWorkHours, 0, len(team)),
	}
	for _, member := range team {
		daily := workSession.NewDailyWorkHours(member, day, byUser[member.ID])
		report.TotalActiveSeconds += daily.TotalActiveSeconds
		report.Employees = append(report.Employees, daily)
	}
	report.TotalActiveHours = workSession.SecondsToHours(report.TotalActiveSeconds)

	return report, nil
}

// GetShiftInfo reports whether a session should be started automatically:
// the user has a shift, it began at most AutoStartWindow ago, and nothing
// is running yet.
func (s *workSessionService) GetShiftInfo(ctx context.Context, userID string) (workSession.ShiftInfo, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return workSession.ShiftInfo{}, err
	}

	open, err := s.repo.FindOpenSession(ctx, userID)
	if err != nil {
		return workSession.ShiftInfo{}, err
	}

	info := workSession.ShiftInfo{
		ShiftStart:       user.ShiftStart,
		ShiftEnd:         user.ShiftEnd,
		HasShift:         user.ShiftStart != "" && user.ShiftEnd != "",
		HasActiveSession: open != nil,
	}
	info.ShouldAutoStart = info.HasShift &&
		!info.HasActiveSession &&
		withinAutoStartWindow(user.ShiftStart, s.clock.Now(), s.location)

	return info, nil
}

func (s *workSessionService) GetReconciliation(ctx context.Context, limit int64) (workSession.ReconciliationResponse, error) {
	if s.queue == nil {
		return workSession.ReconciliationResponse{}, workSession.ErrReconciliationUnavailable
	}

	pending, err := s.queue.PendingReconciliations(ctx, limit)
	if err != nil {
		return workSession.ReconciliationResponse{}, err
	}

	lost, err := s.queue.LostSecondsBySession(ctx)
	if err != nil {
		return workSession.ReconciliationResponse{}, err
	}

	if pending == nil {
		pending = []entity.LostIncrement{}
	}
	if lost == nil {
		lost = map[string]int64{}
	}

	return workSession.ReconciliationResponse{
		Pending:              pending,
		LostSecondsBySession: lost,
	}, nil
}
