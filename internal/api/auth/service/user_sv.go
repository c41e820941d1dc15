package authService

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/auth"
	"WorkHoursMonitor/internal/entity"
	contextPkg "WorkHoursMonitor/pkg/context"
)

func (s *userDomainImpl) RegisterUser(ctx context.Context, req auth.CreateUserRequest) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)
	repo, err := s.repo.NewClient(ctx, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}
	defer func() { _ = repo.Rollback() }()

	role := entity.RoleEmployee
	if req.Role != "" {
		role = entity.UserRole(req.Role)
	}

	if req.ManagerID != "" {
		manager, err := repo.Users.GetByID(ctx, req.ManagerID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return entity.User{}, auth.ErrManagerNotFound
			}
			return entity.User{}, err
		}
		if manager.Role != entity.RoleManager && manager.Role != entity.RoleAdmin {
			return entity.User{}, auth.ErrManagerNotFound
		}
	}

	hashedPassword, err := s.bcryptUtils.HashPassword(req.Password)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to hash password")
		return entity.User{}, err
	}

	now := time.Now()
	ULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.User{}, err
	}

	user := entity.User{
		ID:        ULID,
		Email:     req.Email,
		Username:  req.Username,
		FullName:  req.FullName,
		Password:  hashedPassword,
		Role:      role,
		ManagerID: req.ManagerID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := repo.Users.CreateUser(ctx, user); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to create user")
		return entity.User{}, err
	}
	if err := repo.Commit(); err != nil {
		return entity.User{}, err
	}

	return user, nil
}

func (s *userDomainImpl) GetUserByID(ctx context.Context, id string) (entity.User, error) {
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return entity.User{}, err
	}

	return repo.Users.GetByID(ctx, id)
}

func (s *userDomainImpl) ListByManager(ctx context.Context, managerID string) ([]entity.User, error) {
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return nil, err
	}

	return repo.Users.ListByManager(ctx, managerID)
}

func (s *userDomainImpl) UpdateShift(ctx context.Context, actor entity.UserLoginData, userID string, req auth.UpdateShiftRequest) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !shiftIsOrdered(req.ShiftStart, req.ShiftEnd) {
		return entity.User{}, auth.ErrInvalidShift
	}

	repo, err := s.repo.NewClient(ctx, true)
	if err != nil {
		return entity.User{}, err
	}
	defer func() { _ = repo.Rollback() }()

	user, err := repo.Users.GetByID(ctx, userID)
	if err != nil {
		return entity.User{}, err
	}

	if !canManage(actor, user) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"actor_id":   actor.ID,
			"user_id":    userID,
		}).Warn("Shift update for a user outside the actor's team")
		return entity.User{}, auth.ErrNotYourEmployee
	}

	if err := repo.Users.UpdateShift(ctx, userID, req.ShiftStart, req.ShiftEnd); err != nil {
		return entity.User{}, err
	}
	if err := repo.Commit(); err != nil {
		return entity.User{}, err
	}

	user.ShiftStart = req.ShiftStart
	user.ShiftEnd = req.ShiftEnd
	return user, nil
}
