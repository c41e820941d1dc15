package detection

import (
	"net/http"

	"WorkHoursMonitor/pkg/response"
)

var (
	ErrInvalidFrame        = response.NewError(http.StatusBadRequest, "invalid frame")
	ErrDetectorUnavailable = response.NewError(http.StatusServiceUnavailable, "face detection service unavailable")
	ErrFrameRateExceeded   = response.NewError(http.StatusTooManyRequests, "frame rate exceeded")
)
