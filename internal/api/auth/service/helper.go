package authService

import (
	"time"

	"WorkHoursMonitor/internal/entity"
)

const shiftLayout = "15:04"

func MakeUserData(user entity.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     string(user.Role),
	}
}

// canManage reports whether actor may administer target: admins always,
// managers only for their direct reports.
func canManage(actor entity.UserLoginData, target entity.User) bool {
	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleManager:
		return target.ManagerID == actor.ID
	}
	return false
}

// canView reports whether viewer may read target: admins always, anyone
// their own record, managers their direct reports.
func canView(viewer entity.UserLoginData, target entity.User) bool {
	if viewer.Role == entity.RoleAdmin || viewer.ID == target.ID {
		return true
	}
	return viewer.Role == entity.RoleManager && target.ManagerID == viewer.ID
}

func filterByRole(users []entity.User, role entity.UserRole) []entity.User {
	if role == "" {
		return users
	}
	out := make([]entity.User, 0, len(users))
	for _, u := range users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

func shiftIsOrdered(start, end string) bool {
	s, err := time.Parse(shiftLayout, start)
	if err != nil {
		return false
	}
	e, err := time.Parse(shiftLayout, end)
	if err != nil {
		return false
	}
	return e.After(s)
}
