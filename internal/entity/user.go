package entity

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID         string    `db:"id"`
	Email      string    `db:"email"`
	Username   string    `db:"username"`
	FullName   string    `db:"full_name"`
	Password   string    `db:"password"`
	Role       UserRole  `db:"role"`
	ManagerID  string    `db:"manager_id"`
	ShiftStart string    `db:"shift_start"`
	ShiftEnd   string    `db:"shift_end"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DisplayName falls back to the username when no full name was given.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

type UserLoginData struct {
	ID       string
	Username string
	Email    string
	Role     UserRole
}
