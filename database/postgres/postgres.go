package postgres

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"WorkHoursMonitor/pkg/env"
)

type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func LoadConfig() Config {
	return Config{
		Host:            env.GetEnvAsString("DB_HOST", "localhost"),
		Port:            env.GetEnvAsInt("DB_PORT", 5432),
		User:            env.GetEnvAsString("DB_USER", "postgres"),
		Password:        env.GetEnvAsString("DB_PASSWORD", ""),
		Name:            env.GetEnvAsString("DB_NAME", "work_hours_monitor"),
		SSLMode:         env.GetEnvAsString("DB_SSLMODE", "disable"),
		MaxOpenConns:    env.GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    env.GetEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: env.GetEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// New opens the users database and pings it.
func New() (*sqlx.DB, error) {
	cfg := LoadConfig()

	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}
