package detection

import (
	"time"

	"WorkHoursMonitor/internal/entity"
)

// FrameResult is the detector verdict for one frame together with the
// caller's monitoring state after the frame was counted.
type FrameResult struct {
	FaceDetected     bool                    `json:"face_detected"`
	EyesDetected     bool                    `json:"eyes_detected"`
	Confidence       float64                 `json:"confidence"`
	Timestamp        time.Time               `json:"timestamp"`
	MonitoringStatus entity.MonitoringStatus `json:"monitoring_status"`
}

type DetectResponse struct {
	FaceDetected bool      `json:"face_detected"`
	EyesDetected bool      `json:"eyes_detected"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
}

type StreamError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
