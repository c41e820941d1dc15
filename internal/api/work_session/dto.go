package workSession

import (
	"math"
	"time"

	"WorkHoursMonitor/internal/entity"
)

const DateLayout = "2006-01-02"

type HistoryQuery struct {
	Days int `query:"days" validate:"omitempty,min=1,max=365"`
}

type WorkHoursQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

type AdminWorkHoursQuery struct {
	Date   string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	UserID string `query:"user_id"`
}

type CalendarQuery struct {
	StartDate string `query:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `query:"end_date" validate:"required,datetime=2006-01-02"`
	UserID    string `query:"user_id"`
}

type ReconciliationQuery struct {
	Limit int64 `query:"limit" validate:"omitempty,min=1,max=1000"`
}

type StartSessionResponse struct {
	Message   string             `json:"message"`
	SessionID string             `json:"session_id"`
	Session   entity.WorkSession `json:"session"`
}

type EndSessionResponse struct {
	Message         string             `json:"message"`
	TotalActiveTime int                `json:"total_active_time"`
	Session         entity.WorkSession `json:"session"`
}

type DailyWorkHours struct {
	UserID             string               `json:"user_id"`
	UserName           string               `json:"user_name"`
	Date               string               `json:"date"`
	TotalActiveSeconds int                  `json:"total_active_seconds"`
	TotalActiveHours   float64              `json:"total_active_hours"`
	SessionCount       int                  `json:"session_count"`
	Sessions           []entity.WorkSession `json:"sessions"`
}

// NewDailyWorkHours sums the stored active time of sessions.
func NewDailyWorkHours(user entity.User, date string, sessions []entity.WorkSession) DailyWorkHours {
	if sessions == nil {
		sessions = []entity.WorkSession{}
	}

	total := 0
	for _, s := range sessions {
		total += s.TotalActiveTime
	}

	return DailyWorkHours{
		UserID:             user.ID,
		UserName:           user.DisplayName(),
		Date:               date,
		TotalActiveSeconds: total,
		TotalActiveHours:   SecondsToHours(total),
		SessionCount:       len(sessions),
		Sessions:           sessions,
	}
}

type TeamWorkHours struct {
	ManagerID          string           `json:"manager_id"`
	Date               string           `json:"date"`
	TotalActiveSeconds int              `json:"total_active_seconds"`
	TotalActiveHours   float64          `json:"total_active_hours"`
	Employees          []DailyWorkHours `json:"employees"`
}

// UserWorkHours is a daily report row in the admin overview.
type UserWorkHours struct {
	DailyWorkHours
	Role       entity.UserRole `json:"role,omitempty"`
	ShiftStart string          `json:"shift_start,omitempty"`
	ShiftEnd   string          `json:"shift_end,omitempty"`
}

type CalendarSession struct {
	ID              string               `json:"id"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         *time.Time           `json:"end_time,omitempty"`
	Status          entity.SessionStatus `json:"status"`
	TotalActiveTime int                  `json:"total_active_time"`
}

// CalendarEntry holds one user's sessions that started on one day.
type CalendarEntry struct {
	Date               string            `json:"date"`
	UserID             string            `json:"user_id"`
	UserName           string            `json:"user_name"`
	Role               entity.UserRole   `json:"role,omitempty"`
	TotalActiveSeconds int               `json:"total_active_seconds"`
	TotalHours         float64           `json:"total_hours"`
	Sessions           []CalendarSession `json:"sessions"`
}

type Statistics struct {
	TotalUsers             int   `json:"total_users"`
	TotalAdmins            int   `json:"total_admins"`
	TotalManagers          int   `json:"total_managers"`
	TotalEmployees         int   `json:"total_employees"`
	ActiveSessionsToday    int64 `json:"active_sessions_today"`
	CompletedSessionsToday int64 `json:"completed_sessions_today"`
}

type ShiftInfo struct {
	ShiftStart       string `json:"shift_start,omitempty"`
	ShiftEnd         string `json:"shift_end,omitempty"`
	HasShift         bool   `json:"has_shift"`
	HasActiveSession bool   `json:"has_active_session"`
	ShouldAutoStart  bool   `json:"should_auto_start"`
}

type ReconciliationResponse struct {
	Pending              []entity.LostIncrement `json:"pending"`
	LostSecondsBySession map[string]int64       `json:"lost_seconds_by_session"`
}

// SecondsToHours rounds to two decimals.
func SecondsToHours(seconds int) float64 {
	return math.Round(float64(seconds)/3600*100) / 100
}
