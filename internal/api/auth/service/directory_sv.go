package authService

import (
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/auth"
	"WorkHoursMonitor/internal/entity"
	contextPkg "WorkHoursMonitor/pkg/context"
)

func (s *userDomainImpl) ListUsers(ctx context.Context, role entity.UserRole) ([]entity.User, error) {
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return nil, err
	}

	return repo.Users.ListUsers(ctx, role)
}

// ListVisibleUsers lists everyone for an admin. A manager sees their active
// reports and themselves, everyone else only themselves.
func (s *userDomainImpl) ListVisibleUsers(ctx context.Context, viewer entity.UserLoginData, role entity.UserRole) ([]entity.User, error) {
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return nil, err
	}

	if viewer.Role == entity.RoleAdmin {
		return repo.Users.ListUsers(ctx, role)
	}

	self, err := repo.Users.GetByID(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	users := []entity.User{self}

	if viewer.Role == entity.RoleManager {
		reports, err := repo.Users.ListByManager(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		users = append(users, reports...)
		sort.SliceStable(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	}

	return filterByRole(users, role), nil
}

func (s *userDomainImpl) GetUser(ctx context.Context, viewer entity.UserLoginData, userID string) (entity.User, error) {
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return entity.User{}, err
	}

	user, err := repo.Users.GetByID(ctx, userID)
	if err != nil {
		return entity.User{}, err
	}

	if !canView(viewer, user) {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"viewer_id":  viewer.ID,
			"user_id":    userID,
		}).Warn("User record requested outside the viewer's team")
		return entity.User{}, auth.ErrUserAccessDenied
	}

	return user, nil
}

func (s *userDomainImpl) UpdateUser(ctx context.Context, actor entity.UserLoginData, userID string, req auth.UpdateUserRequest) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)

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
		}).Warn("User update outside the actor's team")
		return entity.User{}, auth.ErrNotYourEmployee
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hashed, err := s.bcryptUtils.HashPassword(*req.Password)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to hash password")
			return entity.User{}, err
		}
		user.Password = hashed
	}

	if err := repo.Users.UpdateUser(ctx, user); err != nil {
		return entity.User{}, err
	}
	if err := repo.Commit(); err != nil {
		return entity.User{}, err
	}

	return user, nil
}

func (s *userDomainImpl) DeleteUser(ctx context.Context, actor entity.UserLoginData, userID string) error {
	if actor.ID == userID {
		return auth.ErrCannotDeleteSelf
	}

	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return err
	}

	if err := repo.Users.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"actor_id":   actor.ID,
		"user_id":    userID,
	}).Info("User deleted")
	return nil
}

// CreateEmployee registers an active employee reporting to manager,
// whatever role or manager the request names.
func (s *userDomainImpl) CreateEmployee(ctx context.Context, manager entity.UserLoginData, req auth.CreateUserRequest) (entity.User, error) {
	req.Role = string(entity.RoleEmployee)
	req.ManagerID = manager.ID
	return s.RegisterUser(ctx, req)
}

func (s *userDomainImpl) ListEmployees(ctx context.Context, manager entity.UserLoginData) ([]entity.User, error) {
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return nil, err
	}

	reports, err := repo.Users.ListByManager(ctx, manager.ID)
	if err != nil {
		return nil, err
	}

	return filterByRole(reports, entity.RoleEmployee), nil
}

func (s *userDomainImpl) CountByRole(ctx context.Context) (map[entity.UserRole]int, error) {
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return nil, err
	}

	return repo.Users.CountByRole(ctx)
}
