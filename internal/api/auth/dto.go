package auth

import (
	"time"

	"WorkHoursMonitor/internal/entity"
)

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50,alphanum"`
	FullName  string `json:"full_name" validate:"max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"omitempty,oneof=admin manager employee"`
	ManagerID string `json:"manager_id" validate:"omitempty"`
}

type LoginUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginUserResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UpdateShiftRequest struct {
	ShiftStart string `json:"shift_start" validate:"required,shift_time"`
	ShiftEnd   string `json:"shift_end" validate:"required,shift_time"`
}

// UpdateUserRequest changes only the fields that are present.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Username *string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	IsActive *bool   `json:"is_active"`
}

type ListUsersQuery struct {
	Role string `query:"role" validate:"omitempty,oneof=admin manager employee"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DashboardResponse struct {
	UserID     string `json:"user_id"`
	FullName   string `json:"full_name"`
	ShiftStart string `json:"shift_start,omitempty"`
	ShiftEnd   string `json:"shift_end,omitempty"`
	ManagerID  string `json:"manager_id,omitempty"`
}

func NewDashboardResponse(u entity.User) DashboardResponse {
	return DashboardResponse{
		UserID:     u.ID,
		FullName:   u.DisplayName(),
		ShiftStart: u.ShiftStart,
		ShiftEnd:   u.ShiftEnd,
		ManagerID:  u.ManagerID,
	}
}

type UserResponse struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Username   string          `json:"username"`
	FullName   string          `json:"full_name,omitempty"`
	Role       entity.UserRole `json:"role"`
	ManagerID  string          `json:"manager_id,omitempty"`
	ShiftStart string          `json:"shift_start,omitempty"`
	ShiftEnd   string          `json:"shift_end,omitempty"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewUserResponse(u entity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.Role,
		ManagerID:  u.ManagerID,
		ShiftStart: u.ShiftStart,
		ShiftEnd:   u.ShiftEnd,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

func NewUserResponses(users []entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
