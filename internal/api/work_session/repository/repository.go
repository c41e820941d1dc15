package workSessionRepository

import (
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/entity"
)

const CollectionName = "work_sessions"

type Repository interface {
	CreateSession(ctx context.Context, session entity.WorkSession) error
	GetSession(ctx context.Context, sessionID string) (*entity.WorkSession, error)
	UpdateSessionFields(ctx context.Context, sessionID string, update entity.WorkSessionUpdate) error
	AppendDetectionLog(ctx context.Context, sessionID string, entry entity.DetectionLogEntry) error
	FindOpenSession(ctx context.Context, userID string) (*entity.WorkSession, error)
	ListSessionsSince(ctx context.Context, userID string, since time.Time) ([]entity.WorkSession, error)
	ListSessionsBetween(ctx context.Context, userIDs []string, from, to time.Time) ([]entity.WorkSession, error)
	ListAllSessionsBetween(ctx context.Context, from, to time.Time) ([]entity.WorkSession, error)
	CountOpenSessions(ctx context.Context) (int64, error)
	CountSessionsByStatusSince(ctx context.Context, since time.Time) (map[entity.SessionStatus]int64, error)
	EnsureIndexes(ctx context.Context) error
}

type repository struct {
	coll *mongo.Collection
	log  *logrus.Logger
}

func New(db *mongo.Database, log *logrus.Logger) Repository {
	return &repository{
		coll: db.Collection(CollectionName),
		log:  log,
	}
}

// EnsureIndexes creates the lookup indexes and the partial unique index that
// keeps a user to one active session even across server instances.
func (r *repository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "start_time", Value: -1},
			},
			Options: options.Index().SetName("user_sessions_by_start"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("one_active_session_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": entity.SessionActive}),
		},
	}

	names, err := r.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}

	r.log.WithField("indexes", names).Info("Work session indexes ensured")
	return nil
}
