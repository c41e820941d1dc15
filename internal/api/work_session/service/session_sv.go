package workSessionService

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	workSession "WorkHoursMonitor/internal/api/work_session"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/internal/presence"
	contextPkg "WorkHoursMonitor/pkg/context"
	"WorkHoursMonitor/pkg/metrics"
)

// BeginSession opens a session for user and starts presence tracking for it.
// The durable store decides whether a session is already running.
func (s *workSessionService) BeginSession(ctx context.Context, user entity.UserLoginData) (entity.WorkSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	existing, err := s.repo.FindOpenSession(ctx, user.ID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
			"error":      err.Error(),
		}).Error("Failed to look up open session")
		return entity.WorkSession{}, err
	}
	if existing != nil {
		return entity.WorkSession{}, workSession.ErrActiveSessionExists
	}

	profile, err := s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return entity.WorkSession{}, err
	}

	now := s.clock.Now()
	sessionID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.WorkSession{}, err
	}

	session := entity.WorkSession{
		ID:               sessionID,
		UserID:           user.ID,
		UserName:         profile.DisplayName(),
		StartTime:        now,
		Status:           entity.SessionActive,
		TotalActiveTime:  0,
		EyeDetectionLogs: []entity.DetectionLogEntry{},
		ShiftStart:       profile.ShiftStart,
		ShiftEnd:         profile.ShiftEnd,
		CreatedAt:        now,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		if !errors.Is(err, workSession.ErrActiveSessionExists) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    user.ID,
				"error":      err.Error(),
			}).Error("Failed to create work session")
		}
		return entity.WorkSession{}, err
	}

	// No open session exists, so any tracker still registered belongs to a
	// session that was closed outside this process.
	if stale, ok := s.tracker.GetStatus(user.ID); ok {
		s.log.WithFields(logrus.Fields{
			"request_id":       requestID,
			"user_id":          user.ID,
			"stale_session_id": stale.SessionID,
		}).Warn("Discarding stale presence tracker")
		s.tracker.StopTracking(user.ID)
	}

	if err := s.tracker.StartTracking(user.ID, sessionID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to start presence tracking")
		return entity.WorkSession{}, err
	}

	metrics.TrackSessionTransition("begin")
	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
		"session_id": sessionID,
	}).Info("Work session started")

	return session, nil
}

// EndSession stops tracking and completes the session. Any window still
// open is dropped.
func (s *workSessionService) EndSession(ctx context.Context, user entity.UserLoginData, sessionID string) (entity.WorkSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return entity.WorkSession{}, err
	}
	if session == nil {
		return entity.WorkSession{}, workSession.ErrSessionNotFound
	}
	if session.UserID != user.ID {
		return entity.WorkSession{}, workSession.ErrNotSessionOwner
	}
	if session.Status == entity.SessionCompleted {
		return entity.WorkSession{}, workSession.ErrSessionAlreadyCompleted
	}

	if status, ok := s.tracker.GetStatus(user.ID); ok && status.SessionID == sessionID {
		session.TotalActiveTime = status.ActiveTimeSeconds
	}
	s.tracker.StopTracking(user.ID)

	now := s.clock.Now()
	completed := entity.SessionCompleted
	if err := s.repo.UpdateSessionFields(ctx, sessionID, entity.WorkSessionUpdate{
		Status:  &completed,
		EndTime: &now,
	}); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to complete work session")
		return entity.WorkSession{}, err
	}

	session.Status = completed
	session.EndTime = &now

	metrics.TrackSessionTransition("end")
	s.log.WithFields(logrus.Fields{
		"request_id":        requestID,
		"user_id":           user.ID,
		"session_id":        sessionID,
		"total_active_time": session.TotalActiveTime,
	}).Info("Work session ended")

	return *session, nil
}

// GetActiveSession returns nil when the user has no open session.
func (s *workSessionService) GetActiveSession(ctx context.Context, userID string) (*entity.WorkSession, error) {
	return s.repo.FindOpenSession(ctx, userID)
}

func (s *workSessionService) GetMonitoringStatus(userID string) entity.MonitoringStatus {
	status, ok := s.tracker.GetStatus(userID)
	if !ok {
		return presence.NotMonitoring()
	}
	return status
}

func (s *workSessionService) GetHistory(ctx context.Context, userID string, days int) ([]entity.WorkSession, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	since := s.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.repo.ListSessionsSince(ctx, userID, since)
}

// GetSession lets the owner, an admin, or the owner's manager read a session.
func (s *workSessionService) GetSession(ctx context.Context, viewer entity.UserLoginData, sessionID string) (entity.WorkSession, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return entity.WorkSession{}, err
	}
	if session == nil {
		return entity.WorkSession{}, workSession.ErrSessionNotFound
	}

	switch {
	case session.UserID == viewer.ID, viewer.Role == entity.RoleAdmin:
		return *session, nil
	case viewer.Role == entity.RoleManager:
		owner, err := s.users.GetUserByID(ctx, session.UserID)
		if err != nil {
			return entity.WorkSession{}, workSession.ErrSessionAccessDenied
		}
		if owner.ManagerID == viewer.ID {
			return *session, nil
		}
	}

	return entity.WorkSession{}, workSession.ErrSessionAccessDenied
}

// ReportOrphanedSessions counts sessions left open by a previous process.
// Their trackers are gone, so they accrue no further active time until
// the owner ends them.
func (s *workSessionService) ReportOrphanedSessions(ctx context.Context) (int64, error) {
	count, err := s.repo.CountOpenSessions(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.WithField("open_sessions", count).
			Warn("Open work sessions have no presence tracker after restart; they will not accrue active time until ended")
	}
	return count, nil
}
