package workSessionRepository

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/net/context"

	workSession "WorkHoursMonitor/internal/api/work_session"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/metrics"
)

func (r *repository) CreateSession(ctx context.Context, session entity.WorkSession) error {
	timer := metrics.TrackDBOperation("insert", CollectionName)
	defer timer.ObserveDuration()

	if session.ID == "" || session.UserID == "" {
		return fmt.Errorf("invalid session data: missing required fields")
	}
	if session.EyeDetectionLogs == nil {
		session.EyeDetectionLogs = []entity.DetectionLogEntry{}
	}

	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return workSession.ErrActiveSessionExists
		}
		r.log.WithFields(logrus.Fields{
			"session_id": session.ID,
			"user_id":    session.UserID,
			"error":      err.Error(),
		}).Error("Failed to insert work session")
		return fmt.Errorf("failed to create session in database: %w", err)
	}

	return nil
}

// GetSession returns nil without error when no session has that id.
func (r *repository) GetSession(ctx context.Context, sessionID string) (*entity.WorkSession, error) {
	timer := metrics.TrackDBOperation("find", CollectionName)
	defer timer.ObserveDuration()

	return r.findOne(ctx, byID(sessionID))
}

// FindOpenSession returns the user's active or paused session, or nil.
func (r *repository) FindOpenSession(ctx context.Context, userID string) (*entity.WorkSession, error) {
	timer := metrics.TrackDBOperation("find_open", CollectionName)
	defer timer.ObserveDuration()

	return r.findOne(ctx, openSessionOf(userID))
}

func (r *repository) findOne(ctx context.Context, filter bson.M) (*entity.WorkSession, error) {
	var session entity.WorkSession
	err := r.coll.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch session from database: %w", err)
	}
	return &session, nil
}

func (r *repository) UpdateSessionFields(ctx context.Context, sessionID string, update entity.WorkSessionUpdate) error {
	if update.Empty() {
		return nil
	}

	timer := metrics.TrackDBOperation("update", CollectionName)
	defer timer.ObserveDuration()

	result, err := r.coll.UpdateOne(ctx, byID(sessionID), setFields(update))
	if err != nil {
		return fmt.Errorf("failed to update session in database: %w", err)
	}
	if result.MatchedCount == 0 {
		return workSession.ErrSessionNotFound
	}

	return nil
}

func (r *repository) AppendDetectionLog(ctx context.Context, sessionID string, entry entity.DetectionLogEntry) error {
	timer := metrics.TrackDBOperation("push_log", CollectionName)
	defer timer.ObserveDuration()

	result, err := r.coll.UpdateOne(ctx, byID(sessionID), pushLog(entry))
	if err != nil {
		return fmt.Errorf("failed to append detection log: %w", err)
	}
	if result.MatchedCount == 0 {
		return workSession.ErrSessionNotFound
	}

	return nil
}

// ListSessionsSince returns the user's sessions started at or after since,
// newest first.
func (r *repository) ListSessionsSince(ctx context.Context, userID string, since time.Time) ([]entity.WorkSession, error) {
	timer := metrics.TrackDBOperation("find_many", CollectionName)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}})
	return r.findMany(ctx, startedSince(userID, since), opts)
}

// ListSessionsBetween returns sessions of any of userIDs started in [from, to),
// oldest first.
func (r *repository) ListSessionsBetween(ctx context.Context, userIDs []string, from, to time.Time) ([]entity.WorkSession, error) {
	if len(userIDs) == 0 {
		return []entity.WorkSession{}, nil
	}

	timer := metrics.TrackDBOperation("find_many", CollectionName)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.findMany(ctx, startedBetween(userIDs, from, to), opts)
}

// ListAllSessionsBetween returns every user's sessions started in [from, to),
// oldest first.
func (r *repository) ListAllSessionsBetween(ctx context.Context, from, to time.Time) ([]entity.WorkSession, error) {
	timer := metrics.TrackDBOperation("find_many", CollectionName)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.findMany(ctx, startedWithin(from, to), opts)
}

func (r *repository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]entity.WorkSession, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []entity.WorkSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return sessions, nil
}

func (r *repository) CountOpenSessions(ctx context.Context) (int64, error) {
	timer := metrics.TrackDBOperation("count", CollectionName)
	defer timer.ObserveDuration()

	count, err := r.coll.CountDocuments(ctx, openSessions())
	if err != nil {
		return 0, fmt.Errorf("failed to count open sessions: %w", err)
	}
	return count, nil
}

// CountSessionsByStatusSince counts sessions started at or after since,
// keyed by their current status.
func (r *repository) CountSessionsByStatusSince(ctx context.Context, since time.Time) (map[entity.SessionStatus]int64, error) {
	timer := metrics.TrackDBOperation("aggregate", CollectionName)
	defer timer.ObserveDuration()

	cursor, err := r.coll.Aggregate(ctx, statusCountsSince(since))
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status entity.SessionStatus `bson:"_id"`
		N      int64                `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode session counts: %w", err)
	}

	counts := make(map[entity.SessionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}
