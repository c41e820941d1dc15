package authService

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/auth"
	authRepository "WorkHoursMonitor/internal/api/auth/repository"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/bcrypt"
	"WorkHoursMonitor/pkg/utils"
)

type AuthService interface {
	User() UserDomain
	Auth() AuthDomain
	GetRepository() authRepository.Repository
}

type UserDomain interface {
	RegisterUser(c context.Context, req auth.CreateUserRequest) (entity.User, error)
	GetUserByID(c context.Context, id string) (entity.User, error)
	ListByManager(c context.Context, managerID string) ([]entity.User, error)
	UpdateShift(c context.Context, actor entity.UserLoginData, userID string, req auth.UpdateShiftRequest) (entity.User, error)
	ListUsers(c context.Context, role entity.UserRole) ([]entity.User, error)
	ListVisibleUsers(c context.Context, viewer entity.UserLoginData, role entity.UserRole) ([]entity.User, error)
	GetUser(c context.Context, viewer entity.UserLoginData, userID string) (entity.User, error)
	UpdateUser(c context.Context, actor entity.UserLoginData, userID string, req auth.UpdateUserRequest) (entity.User, error)
	DeleteUser(c context.Context, actor entity.UserLoginData, userID string) error
	CreateEmployee(c context.Context, manager entity.UserLoginData, req auth.CreateUserRequest) (entity.User, error)
	ListEmployees(c context.Context, manager entity.UserLoginData) ([]entity.User, error)
	CountByRole(c context.Context) (map[entity.UserRole]int, error)
}

type AuthDomain interface {
	Login(c context.Context, req auth.LoginUserRequest) (auth.LoginUserResponse, error)
}

type authService struct {
	log            *logrus.Logger
	authRepository authRepository.Repository

	userDomain UserDomain
	authDomain AuthDomain
}

func (a *authService) User() UserDomain {
	return a.userDomain
}

func (a *authService) Auth() AuthDomain {
	return a.authDomain
}

func (a *authService) GetRepository() authRepository.Repository {
	return a.authRepository
}

type userDomainImpl struct {
	log         *logrus.Logger
	repo        authRepository.Repository
	bcryptUtils bcrypt.IBcrypt
	utils       utils.IUtils
}

type authDomainImpl struct {
	log         *logrus.Logger
	repo        authRepository.Repository
	bcryptUtils bcrypt.IBcrypt
	tokenTTL    time.Duration
}

func New(log *logrus.Logger,
	authRepo authRepository.Repository,
	bcryptUtils bcrypt.IBcrypt,
	utils utils.IUtils,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		log:            log,
		authRepository: authRepo,

		userDomain: &userDomainImpl{log: log, repo: authRepo, bcryptUtils: bcryptUtils, utils: utils},
		authDomain: &authDomainImpl{log: log, repo: authRepo, bcryptUtils: bcryptUtils, tokenTTL: tokenTTL},
	}
}
