package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"WorkHoursMonitor/internal/entity"
)

const (
	reconciliationQueueKey    = "presence:reconciliation:queue"
	reconciliationSessionsKey = "presence:reconciliation:sessions"
)

// IRedis is the reconciliation queue for presence writes that never reached
// the session store.
type IRedis interface {
	FlagLostIncrement(ctx context.Context, lost entity.LostIncrement) error
	ResolveLostTotal(ctx context.Context, sessionID string) error
	PendingReconciliations(ctx context.Context, limit int64) ([]entity.LostIncrement, error)
	LostSecondsBySession(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, log: log}
}

func NewFromClient(client *redis.Client, log *logrus.Logger) IRedis {
	return &redisClient{client: client, log: log}
}

// FlagLostIncrement queues the record. Lost total writes also add their
// seconds to the per-session tally in the same transaction.
func (r *redisClient) FlagLostIncrement(ctx context.Context, lost entity.LostIncrement) error {
	payload, err := jsoniter.Marshal(lost)
	if err != nil {
		return fmt.Errorf("marshal lost increment: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, reconciliationQueueKey, payload)
		if lost.Kind == entity.LostCommittedTotal {
			pipe.HIncrBy(ctx, reconciliationSessionsKey, lost.SessionID, int64(lost.Seconds))
		}
		return nil
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": lost.SessionID,
			"error":      err.Error(),
		}).Error("Error queueing lost increment")
		return err
	}

	r.log.WithFields(logrus.Fields{
		"session_id": lost.SessionID,
		"kind":       lost.Kind,
		"seconds":    lost.Seconds,
	}).Warn("Queued lost increment for reconciliation")
	return nil
}

// ResolveLostTotal drops the session from the tally. The queued records stay
// as history.
func (r *redisClient) ResolveLostTotal(ctx context.Context, sessionID string) error {
	if err := r.client.HDel(ctx, reconciliationSessionsKey, sessionID).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error clearing lost seconds for session")
		return err
	}
	return nil
}

// PendingReconciliations returns up to limit records, newest first.
func (r *redisClient) PendingReconciliations(ctx context.Context, limit int64) ([]entity.LostIncrement, error) {
	if limit <= 0 {
		limit = 100
	}

	raw, err := r.client.LRange(ctx, reconciliationQueueKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	items := make([]entity.LostIncrement, 0, len(raw))
	for _, item := range raw {
		var lost entity.LostIncrement
		if err := jsoniter.UnmarshalFromString(item, &lost); err != nil {
			r.log.WithField("error", err.Error()).Warn("Skipping malformed reconciliation record")
			continue
		}
		items = append(items, lost)
	}

	return items, nil
}

func (r *redisClient) LostSecondsBySession(ctx context.Context) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, reconciliationSessionsKey).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(raw))
	for sessionID, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[sessionID] = n
	}
	return out, nil
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
