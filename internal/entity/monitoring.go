package entity

import "time"

type FaceDetectionResult struct {
	FaceDetected bool    `json:"face_detected"`
	EyesDetected bool    `json:"eyes_detected"`
	Confidence   float64 `json:"confidence"`
}

// MonitoringStatus is the tracker snapshot returned after every observation.
// EyesDetected and FaceDetected are only set when the snapshot was produced
// by an observation.
type MonitoringStatus struct {
	IsMonitoring         bool       `json:"is_monitoring"`
	SessionID            string     `json:"session_id,omitempty"`
	Message              string     `json:"message,omitempty"`
	ActiveTimeSeconds    int        `json:"active_time"`
	CurrentWindowSeconds float64    `json:"current_window_time"`
	EyesDetected         *bool      `json:"eyes_detected,omitempty"`
	FaceDetected         *bool      `json:"face_detected,omitempty"`
	LastObservationTime  *time.Time `json:"last_activity,omitempty"`
	ObservedAt           *time.Time `json:"observed_at,omitempty"`
}

type LostIncrementKind string

// Only LostCommittedTotal leaves total_active_time behind the tracker; the
// other kinds are missing detection log entries.
const (
	LostCommittedTotal  LostIncrementKind = "committed_total"
	LostCommittedLog    LostIncrementKind = "committed_log"
	LostAbandonedWindow LostIncrementKind = "abandoned_window"
)

// LostIncrement is a store write that failed after every retry. The tracker
// kept going, so the durable record is behind by Seconds until reconciled.
type LostIncrement struct {
	UserID          string            `json:"user_id"`
	SessionID       string            `json:"session_id"`
	Kind            LostIncrementKind `json:"kind"`
	Seconds         int               `json:"seconds"`
	TotalActiveTime int               `json:"total_active_time"`
	At              time.Time         `json:"at"`
	Reason          string            `json:"reason"`
}
