// Package presence turns per-frame "eyes detected" observations into
// committed active time for each monitored user.
//
// A user accrues presence inside a window. Consecutive positive
// observations no more than GapTolerance apart add their gap to the window;
// a longer silence restarts it. Once a window holds MaturityThreshold of
// presence it is committed to the work session and a new window begins. A
// negative observation closes the window, and a window older than
// AbandonedLogMinimum is recorded in the detection log without being
// credited.
package presence

import (
	"context"
	"errors"
	"time"

	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/clock"
	"WorkHoursMonitor/pkg/env"
)

const (
	MaturityThreshold   = 300 * time.Second
	GapTolerance        = 10 * time.Second
	AbandonedLogMinimum = 60 * time.Second
)

var ErrAlreadyTracking = errors.New("presence: user is already being tracked")

// Observation is one detector verdict. A zero At is stamped from the
// tracker's clock once the user's lock is held, so concurrent frames from
// one user are ordered by the time they are applied.
type Observation struct {
	FaceDetected bool
	EyesDetected bool
	Confidence   float64
	At           time.Time
}

// SessionStore is the slice of the work session repository the tracker
// writes to.
type SessionStore interface {
	AppendDetectionLog(ctx context.Context, sessionID string, entry entity.DetectionLogEntry) error
	UpdateSessionFields(ctx context.Context, sessionID string, update entity.WorkSessionUpdate) error
}

// Reconciler receives store writes that were given up on. ResolveLostTotal
// is called once a later total write for the session succeeds, since that
// write carries the full running total.
type Reconciler interface {
	FlagLostIncrement(ctx context.Context, lost entity.LostIncrement) error
	ResolveLostTotal(ctx context.Context, sessionID string) error
}

type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	AttemptTimeout  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		AttemptTimeout:  5 * time.Second,
	}
}

func RetryPolicyFromEnv() RetryPolicy {
	d := DefaultRetryPolicy()
	return RetryPolicy{
		MaxAttempts:     env.GetEnvAsInt("PRESENCE_PERSIST_MAX_ATTEMPTS", d.MaxAttempts),
		InitialInterval: env.GetEnvAsDuration("PRESENCE_PERSIST_INITIAL_INTERVAL", d.InitialInterval),
		MaxInterval:     env.GetEnvAsDuration("PRESENCE_PERSIST_MAX_INTERVAL", d.MaxInterval),
		AttemptTimeout:  env.GetEnvAsDuration("PRESENCE_PERSIST_TIMEOUT", d.AttemptTimeout),
	}
}

type Option func(*Tracker)

func WithReconciler(r Reconciler) Option {
	return func(t *Tracker) {
		t.reconciler = r
	}
}

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(t *Tracker) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		t.retry = p
	}
}
