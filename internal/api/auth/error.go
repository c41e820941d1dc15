package auth

import (
	"net/http"

	"WorkHoursMonitor/pkg/response"
)

var (
	ErrEmailAlreadyExists     = response.NewError(http.StatusConflict, "email already exists")
	ErrUsernameAlreadyExists  = response.NewError(http.StatusConflict, "username already exists")
	ErrInvalidEmailOrPassword = response.NewCodedError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "email or password is wrong")
	ErrInactiveUser           = response.NewError(http.StatusBadRequest, "inactive user")
	ErrUserNotFound           = response.NewError(http.StatusNotFound, "user not found")
	ErrManagerNotFound        = response.NewError(http.StatusBadRequest, "manager not found")
	ErrInvalidShift           = response.NewError(http.StatusBadRequest, "shift end must be after shift start")
	ErrNotYourEmployee        = response.NewError(http.StatusForbidden, "user does not report to you")
	ErrUserAccessDenied       = response.NewError(http.StatusForbidden, "not enough permissions")
	ErrCannotDeleteSelf       = response.NewError(http.StatusBadRequest, "cannot delete your own account")
)
