package detectionHandler

import (
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"golang.org/x/time/rate"

	"WorkHoursMonitor/internal/api/detection"
	"WorkHoursMonitor/internal/entity"
	contextPkg "WorkHoursMonitor/pkg/context"
	"WorkHoursMonitor/pkg/response"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// handleFrameStream reads binary frames and answers each with a
// detection.FrameResult. Errors are reported per frame and the stream
// stays open.
func (h *DetectionHandler) handleFrameStream(c *websocket.Conn) {
	user, ok := c.Locals("user").(entity.UserLoginData)
	if !ok {
		_ = c.WriteJSON(detection.StreamError{Error: "Unauthorized", Code: "UNAUTHORIZED"})
		return
	}

	requestID, _ := c.Locals("X-Request-ID").(string)
	ctx := contextPkg.WithUserID(contextPkg.WithRequestID(context.Background(), requestID), user.ID)

	fields := logrus.Fields{"user_id": user.ID, "request_id": requestID}
	h.log.WithFields(fields).Info("Frame stream connected")
	defer h.log.WithFields(fields).Info("Frame stream disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.WithFields(fields).Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	limiter := rate.NewLimiter(h.streamRate, h.streamBurst)

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(fields).Warnf("Frame stream error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			if !h.writeStream(c, fields, detection.StreamError{Error: "frames must be sent as binary messages", Code: "INVALID_FRAME"}) {
				break
			}
			continue
		}

		if !limiter.Allow() {
			if !h.writeStream(c, fields, streamError(detection.ErrFrameRateExceeded)) {
				break
			}
			continue
		}

		result, err := h.detectionService.ProcessFrame(ctx, user.ID, message)
		if err != nil {
			if !h.writeStream(c, fields, streamError(err)) {
				break
			}
			continue
		}

		if !h.writeStream(c, fields, result) {
			break
		}
	}
}

func (h *DetectionHandler) writeStream(c *websocket.Conn, fields logrus.Fields, v interface{}) bool {
	if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return false
	}
	if err := c.WriteJSON(v); err != nil {
		h.log.WithFields(fields).Warnf("Error writing to frame stream: %v", err)
		return false
	}
	return true
}

func streamError(err error) detection.StreamError {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return detection.StreamError{Error: respErr.Error(), Code: respErr.Slug}
	}
	return detection.StreamError{Error: "An unexpected error occurred"}
}
