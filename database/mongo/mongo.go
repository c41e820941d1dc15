package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"WorkHoursMonitor/pkg/env"
)

type Config struct {
	URI             string
	DatabaseName    string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

func LoadConfig() Config {
	return Config{
		URI:             env.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:    env.GetEnvAsString("MONGO_DB", "work_hours_monitor"),
		MaxPoolSize:     uint64(env.GetEnvAsInt("MONGO_MAX_POOL_SIZE", 100)),
		MinPoolSize:     uint64(env.GetEnvAsInt("MONGO_MIN_POOL_SIZE", 5)),
		MaxConnIdleTime: env.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", 60*time.Second),
		ConnectTimeout:  env.GetEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
	}
}

// New connects to MONGO_URI and returns the work session database.
// The caller owns the client and must Disconnect it on shutdown.
func New(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	cfg := LoadConfig()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, client.Database(cfg.DatabaseName), nil
}
