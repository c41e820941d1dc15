package workSession

import (
	"net/http"

	"WorkHoursMonitor/pkg/response"
)

var (
	ErrActiveSessionExists       = response.NewError(http.StatusConflict, "active session already exists")
	ErrSessionNotFound           = response.NewError(http.StatusNotFound, "session not found")
	ErrNotSessionOwner           = response.NewError(http.StatusForbidden, "not authorized to end this session")
	ErrSessionAccessDenied       = response.NewError(http.StatusForbidden, "not authorized to view this session")
	ErrSessionAlreadyCompleted   = response.NewError(http.StatusConflict, "session already completed")
	ErrInvalidDate               = response.NewCodedError(http.StatusBadRequest, "INVALID_DATE", "invalid date format, use YYYY-MM-DD")
	ErrInvalidDateRange          = response.NewCodedError(http.StatusBadRequest, "INVALID_DATE_RANGE", "end_date must not precede start_date and the range may span at most 92 days")
	ErrNotYourEmployee           = response.NewError(http.StatusForbidden, "employee does not report to you")
	ErrReconciliationUnavailable = response.NewError(http.StatusServiceUnavailable, "reconciliation queue unavailable")
)
