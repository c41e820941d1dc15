package entity

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	// SessionPaused is stored and blocks a new session, but nothing moves a
	// session into or out of it yet.
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

type DetectionLogEntry struct {
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	EyesDetected bool      `bson:"eyes_detected" json:"eyes_detected"`
	Duration     int       `bson:"duration" json:"duration"`
}

type WorkSession struct {
	ID               string              `bson:"_id" json:"id"`
	UserID           string              `bson:"user_id" json:"user_id"`
	UserName         string              `bson:"user_name" json:"user_name"`
	StartTime        time.Time           `bson:"start_time" json:"start_time"`
	EndTime          *time.Time          `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Status           SessionStatus       `bson:"status" json:"status"`
	TotalActiveTime  int                 `bson:"total_active_time" json:"total_active_time"`
	EyeDetectionLogs []DetectionLogEntry `bson:"eye_detection_logs" json:"eye_detection_logs"`
	ShiftStart       string              `bson:"shift_start,omitempty" json:"shift_start,omitempty"`
	ShiftEnd         string              `bson:"shift_end,omitempty" json:"shift_end,omitempty"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
}

// WorkSessionUpdate carries the fields to $set; nil fields are left alone.
type WorkSessionUpdate struct {
	Status          *SessionStatus
	EndTime         *time.Time
	TotalActiveTime *int
}

func (u WorkSessionUpdate) Empty() bool {
	return u.Status == nil && u.EndTime == nil && u.TotalActiveTime == nil
}
