package detectionHandler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/detection"
	contextPkg "WorkHoursMonitor/pkg/context"
	"WorkHoursMonitor/pkg/handlerUtil"
	jwtPkg "WorkHoursMonitor/pkg/jwt"
	"WorkHoursMonitor/pkg/utils"
)

// readFrame loads the multipart "file" field. Upload problems are the
// caller's fault and map to ErrInvalidFrame.
func (h *DetectionHandler) readFrame(ctx *fiber.Ctx) ([]byte, error) {
	file, err := ctx.FormFile("file")
	if err != nil {
		return nil, errors.Join(detection.ErrInvalidFrame, utils.ErrNoFile)
	}

	frame, err := h.utils.ReadImageFile(file)
	if err != nil {
		return nil, errors.Join(detection.ErrInvalidFrame, err)
	}
	return frame, nil
}

func (h *DetectionHandler) HandleDetectFace(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	frame, err := h.readFrame(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frame")
	}

	result, err := h.detectionService.DetectFace(c, frame)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_face")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *DetectionHandler) HandleProcessFrame(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	frame, err := h.readFrame(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frame")
	}

	result, err := h.detectionService.ProcessFrame(c, userData.ID, frame)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_frame")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}
