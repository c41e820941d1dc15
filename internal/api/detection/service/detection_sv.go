package detectionService

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/detection"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/internal/presence"
	contextPkg "WorkHoursMonitor/pkg/context"
	"WorkHoursMonitor/pkg/metrics"
)

func (s *detectionService) detect(ctx context.Context, frame []byte) (*entity.FaceDetectionResult, error) {
	if err := s.utils.ValidateFrame(frame); err != nil {
		metrics.TrackDetectorRequest("invalid_frame")
		return nil, fmt.Errorf("%w: %s", detection.ErrInvalidFrame, err.Error())
	}

	result, err := s.detector.DetectFace(frame)
	if err != nil {
		metrics.TrackDetectorRequest("error")
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Face detection failed")
		return nil, detection.ErrDetectorUnavailable
	}

	metrics.TrackDetectorRequest("ok")
	return result, nil
}

// DetectFace classifies a frame without counting it toward any session.
func (s *detectionService) DetectFace(ctx context.Context, frame []byte) (detection.DetectResponse, error) {
	result, err := s.detect(ctx, frame)
	if err != nil {
		return detection.DetectResponse{}, err
	}

	return detection.DetectResponse{
		FaceDetected: result.FaceDetected,
		EyesDetected: result.EyesDetected,
		Confidence:   result.Confidence,
		Timestamp:    s.clock.Now(),
	}, nil
}

// ProcessFrame classifies a frame and feeds the verdict to userID's
// tracker. Frames from users without a running session are still
// classified; their status simply reports no monitoring.
func (s *detectionService) ProcessFrame(ctx context.Context, userID string, frame []byte) (detection.FrameResult, error) {
	result, err := s.detect(ctx, frame)
	if err != nil {
		return detection.FrameResult{}, err
	}

	// The tracker stamps the observation once it holds the user's lock.
	status := s.tracker.ProcessObservation(ctx, userID, presence.Observation{
		FaceDetected: result.FaceDetected,
		EyesDetected: result.EyesDetected,
		Confidence:   result.Confidence,
	})

	now := s.clock.Now()
	if status.ObservedAt != nil {
		now = *status.ObservedAt
	}

	return detection.FrameResult{
		FaceDetected:     result.FaceDetected,
		EyesDetected:     result.EyesDetected,
		Confidence:       result.Confidence,
		Timestamp:        now,
		MonitoringStatus: status,
	}, nil
}
