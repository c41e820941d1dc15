package authRepository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/entity"
)

// UserStore is the user table as seen by the auth and reporting services.
type UserStore interface {
	CreateUser(ctx context.Context, user entity.User) error
	GetByID(ctx context.Context, id string) (entity.User, error)
	GetByEmail(ctx context.Context, email string) (entity.User, error)
	ListByManager(ctx context.Context, managerID string) ([]entity.User, error)
	UpdateShift(ctx context.Context, id string, shiftStart string, shiftEnd string) error
	// ListUsers returns every user, or only those holding role when it is
	// not empty, ordered by username.
	ListUsers(ctx context.Context, role entity.UserRole) ([]entity.User, error)
	UpdateUser(ctx context.Context, user entity.User) error
	DeleteUser(ctx context.Context, id string) error
	CountByRole(ctx context.Context) (map[entity.UserRole]int, error)
}

type Repository interface {
	// NewClient returns a client bound to ctx. With tx set, every call
	// runs in one read-committed transaction that the caller must Commit;
	// Rollback after Commit is a no-op.
	NewClient(ctx context.Context, tx bool) (Client, error)
}

type Client struct {
	Users UserStore

	Commit   func() error
	Rollback func() error
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		db:  db,
		log: log,
	}
}

type repository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func (r *repository) NewClient(ctx context.Context, tx bool) (Client, error) {
	if !tx {
		noop := func() error { return nil }
		return Client{
			Users:    &userRepository{q: r.db, log: r.log},
			Commit:   noop,
			Rollback: noop,
		}, nil
	}

	txx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Client{}, err
	}

	return Client{
		Users:  &userRepository{q: txx, log: r.log},
		Commit: txx.Commit,
		Rollback: func() error {
			if err := txx.Rollback(); err != nil && err != sql.ErrTxDone {
				return err
			}
			return nil
		},
	}, nil
}

type userRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}
