package detectionService

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/detection"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/internal/presence"
	"WorkHoursMonitor/pkg/clock"
	"WorkHoursMonitor/pkg/utils"
)

type IDetectionService interface {
	DetectFace(ctx context.Context, frame []byte) (detection.DetectResponse, error)
	ProcessFrame(ctx context.Context, userID string, frame []byte) (detection.FrameResult, error)
}

// FaceDetector classifies one encoded frame. websocketPkg.IWebsocket
// satisfies it.
type FaceDetector interface {
	DetectFace(frame []byte) (*entity.FaceDetectionResult, error)
}

type ObservationSink interface {
	ProcessObservation(ctx context.Context, userID string, obs presence.Observation) entity.MonitoringStatus
}

type detectionService struct {
	log      *logrus.Logger
	detector FaceDetector
	tracker  ObservationSink
	utils    utils.IUtils
	clock    clock.Clock
}

func NewDetectionService(
	log *logrus.Logger,
	detector FaceDetector,
	tracker ObservationSink,
	utils utils.IUtils,
	clk clock.Clock,
) IDetectionService {
	if clk == nil {
		clk = clock.Real()
	}
	return &detectionService{
		log:      log,
		detector: detector,
		tracker:  tracker,
		utils:    utils,
		clock:    clk,
	}
}
