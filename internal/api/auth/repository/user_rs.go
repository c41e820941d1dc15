package authRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"WorkHoursMonitor/internal/api/auth"
	"WorkHoursMonitor/internal/entity"
	contextPkg "WorkHoursMonitor/pkg/context"
	"WorkHoursMonitor/pkg/metrics"
)

type UserDB struct {
	ID         sql.NullString `db:"id"`
	Email      sql.NullString `db:"email"`
	Username   sql.NullString `db:"username"`
	FullName   sql.NullString `db:"full_name"`
	Password   sql.NullString `db:"password"`
	Role       sql.NullString `db:"role"`
	ManagerID  sql.NullString `db:"manager_id"`
	ShiftStart sql.NullString `db:"shift_start"`
	ShiftEnd   sql.NullString `db:"shift_end"`
	IsActive   bool           `db:"is_active"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// uniqueViolation maps a duplicate email or username to its domain error.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case "users_email_key":
		return auth.ErrEmailAlreadyExists
	case "users_username_key":
		return auth.ErrUsernameAlreadyExists
	}
	return nil
}

func (r *userRepository) CreateUser(c context.Context, user entity.User) error {
	requestID := contextPkg.GetRequestID(c)
	defer metrics.TrackDBOperation("insert", "users").ObserveDuration()

	now := time.Now()
	argsKV := map[string]interface{}{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"full_name":  nullString(user.FullName),
		"password":   user.Password,
		"role":       string(user.Role),
		"manager_id": nullString(user.ManagerID),
		"is_active":  user.IsActive,
		"created_at": now,
		"updated_at": now,
	}

	query, args, err := sqlx.Named(queryCreateUser, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateUser")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(c, query, args...); err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating user")
		return err
	}

	return nil
}

func (r *userRepository) GetByID(c context.Context, id string) (entity.User, error) {
	return r.getOne(c, "GetByID", queryGetByID, map[string]interface{}{"id": id})
}

func (r *userRepository) GetByEmail(c context.Context, email string) (entity.User, error) {
	return r.getOne(c, "GetByEmail", queryGetByEmail, map[string]interface{}{"email": email})
}

func (r *userRepository) getOne(c context.Context, op string, q string, argsKV map[string]interface{}) (entity.User, error) {
	requestID := contextPkg.GetRequestID(c)
	defer metrics.TrackDBOperation("select", "users").ObserveDuration()

	query, args, err := sqlx.Named(q, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return entity.User{}, err
	}
	query = r.q.Rebind(query)

	var user UserDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.User{}, auth.ErrUserNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return entity.User{}, err
	}

	return r.makeUser(user), nil
}

func (r *userRepository) ListByManager(c context.Context, managerID string) ([]entity.User, error) {
	return r.list(c, "ListByManager", queryListByManager, map[string]interface{}{"manager_id": managerID})
}

func (r *userRepository) ListUsers(c context.Context, role entity.UserRole) ([]entity.User, error) {
	return r.list(c, "ListUsers", queryListUsers, map[string]interface{}{"role": string(role)})
}

func (r *userRepository) list(c context.Context, op string, q string, argsKV map[string]interface{}) ([]entity.User, error) {
	requestID := contextPkg.GetRequestID(c)
	defer metrics.TrackDBOperation("select", "users").ObserveDuration()

	query, args, err := sqlx.Named(q, argsKV)
	if err != nil {
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return nil, err
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		var user UserDB
		if err := rows.StructScan(&user); err != nil {
			return nil, err
		}
		users = append(users, r.makeUser(user))
	}

	return users, rows.Err()
}

func (r *userRepository) UpdateShift(c context.Context, id string, shiftStart string, shiftEnd string) error {
	requestID := contextPkg.GetRequestID(c)
	defer metrics.TrackDBOperation("update", "users").ObserveDuration()

	query, args, err := sqlx.Named(queryUpdateShift, map[string]interface{}{
		"id":          id,
		"shift_start": shiftStart,
		"shift_end":   shiftEnd,
		"updated_at":  time.Now(),
	})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateShift execution err")
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) UpdateUser(c context.Context, user entity.User) error {
	requestID := contextPkg.GetRequestID(c)
	defer metrics.TrackDBOperation("update", "users").ObserveDuration()

	query, args, err := sqlx.Named(queryUpdateUser, map[string]interface{}{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"full_name":  nullString(user.FullName),
		"password":   user.Password,
		"is_active":  user.IsActive,
		"updated_at": time.Now(),
	})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
			"error":      err.Error(),
		}).Error("UpdateUser execution err")
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) DeleteUser(c context.Context, id string) error {
	requestID := contextPkg.GetRequestID(c)
	defer metrics.TrackDBOperation("delete", "users").ObserveDuration()

	query, args, err := sqlx.Named(queryDeleteUser, map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    id,
			"error":      err.Error(),
		}).Error("DeleteUser execution err")
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) CountByRole(c context.Context) (map[entity.UserRole]int, error) {
	requestID := contextPkg.GetRequestID(c)
	defer metrics.TrackDBOperation("select", "users").ObserveDuration()

	rows, err := r.q.QueryxContext(c, queryCountByRole)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountByRole execution err")
		return nil, err
	}
	defer rows.Close()

	counts := map[entity.UserRole]int{}
	for rows.Next() {
		var row struct {
			Role  string `db:"role"`
			Total int    `db:"total"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		counts[entity.UserRole(row.Role)] = row.Total
	}

	return counts, rows.Err()
}

func (r *userRepository) makeUser(user UserDB) entity.User {
	var createdAt, updatedAt time.Time
	if user.CreatedAt.Valid {
		createdAt = user.CreatedAt.Time
	}
	if user.UpdatedAt.Valid {
		updatedAt = user.UpdatedAt.Time
	}

	return entity.User{
		ID:         user.ID.String,
		Email:      user.Email.String,
		Username:   user.Username.String,
		FullName:   user.FullName.String,
		Password:   user.Password.String,
		Role:       entity.UserRole(user.Role.String),
		ManagerID:  user.ManagerID.String,
		ShiftStart: user.ShiftStart.String,
		ShiftEnd:   user.ShiftEnd.String,
		IsActive:   user.IsActive,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}
