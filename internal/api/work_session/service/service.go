package workSessionService

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	workSession "WorkHoursMonitor/internal/api/work_session"
	workSessionRepository "WorkHoursMonitor/internal/api/work_session/repository"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/clock"
	"WorkHoursMonitor/pkg/utils"
)

type IWorkSessionService interface {
	BeginSession(ctx context.Context, user entity.UserLoginData) (entity.WorkSession, error)
	EndSession(ctx context.Context, user entity.UserLoginData, sessionID string) (entity.WorkSession, error)
	GetActiveSession(ctx context.Context, userID string) (*entity.WorkSession, error)
	GetMonitoringStatus(userID string) entity.MonitoringStatus
	GetHistory(ctx context.Context, userID string, days int) ([]entity.WorkSession, error)
	GetSession(ctx context.Context, viewer entity.UserLoginData, sessionID string) (entity.WorkSession, error)
	GetDailyWorkHours(ctx context.Context, userID, date string) (workSession.DailyWorkHours, error)
	GetEmployeeWorkHours(ctx context.Context, viewer entity.UserLoginData, employeeID, date string) (workSession.DailyWorkHours, error)
	GetTeamWorkHours(ctx context.Context, manager entity.UserLoginData, date string) (workSession.TeamWorkHours, error)
	GetShiftInfo(ctx context.Context, userID string) (workSession.ShiftInfo, error)
	GetAdminWorkHours(ctx context.Context, date, userID string) ([]workSession.UserWorkHours, error)
	GetCalendar(ctx context.Context, startDate, endDate, userID string) ([]workSession.CalendarEntry, error)
	GetStatistics(ctx context.Context) (workSession.Statistics, error)
	GetReconciliation(ctx context.Context, limit int64) (workSession.ReconciliationResponse, error)
	ReportOrphanedSessions(ctx context.Context) (int64, error)
}

// PresenceTracker is the part of presence.Tracker the lifecycle drives.
type PresenceTracker interface {
	StartTracking(userID, sessionID string) error
	StopTracking(userID string)
	GetStatus(userID string) (entity.MonitoringStatus, bool)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (entity.User, error)
	ListByManager(ctx context.Context, managerID string) ([]entity.User, error)
	ListUsers(ctx context.Context, role entity.UserRole) ([]entity.User, error)
	CountByRole(ctx context.Context) (map[entity.UserRole]int, error)
}

type ReconciliationQueue interface {
	PendingReconciliations(ctx context.Context, limit int64) ([]entity.LostIncrement, error)
	LostSecondsBySession(ctx context.Context) (map[string]int64, error)
}

const (
	DefaultHistoryDays = 7
	AutoStartWindow    = 15 * time.Minute
	MaxCalendarDays    = 92
)

type workSessionService struct {
	log      *logrus.Logger
	repo     workSessionRepository.Repository
	tracker  PresenceTracker
	users    UserLookup
	queue    ReconciliationQueue
	utils    utils.IUtils
	clock    clock.Clock
	location *time.Location
	locks    *userLocks
}

type Option func(*workSessionService)

func WithClock(c clock.Clock) Option {
	return func(s *workSessionService) {
		s.clock = c
	}
}

// WithLocation sets the zone used for calendar days and shift times.
func WithLocation(loc *time.Location) Option {
	return func(s *workSessionService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithReconciliationQueue enables the lost increment report. Without it the
// report answers ErrReconciliationUnavailable.
func WithReconciliationQueue(q ReconciliationQueue) Option {
	return func(s *workSessionService) {
		s.queue = q
	}
}

func New(
	log *logrus.Logger,
	repo workSessionRepository.Repository,
	tracker PresenceTracker,
	users UserLookup,
	utils utils.IUtils,
	opts ...Option,
) IWorkSessionService {
	s := &workSessionService{
		log:      log,
		repo:     repo,
		tracker:  tracker,
		users:    users,
		utils:    utils,
		clock:    clock.Real(),
		location: time.UTC,
		locks:    newUserLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
