package presence

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	workSession "WorkHoursMonitor/internal/api/work_session"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/metrics"
)

// persist runs fn with exponential backoff. The caller's cancellation is
// ignored so that a client hanging up does not drop an increment that the
// tracker has already counted; each attempt is bounded by AttemptTimeout.
// A session that no longer exists is not retried.
func (t *Tracker) persist(ctx context.Context, u *trackedUser, op string, fn func(context.Context) error) error {
	ctx = context.WithoutCancel(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.retry.InitialInterval
	b.MaxInterval = t.retry.MaxInterval
	b.MaxElapsedTime = 0

	policy := backoff.WithMaxRetries(b, uint64(t.retry.MaxAttempts-1))

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, t.retry.AttemptTimeout)
		defer cancel()
		err := fn(actx)
		if errors.Is(err, workSession.ErrSessionNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		metrics.PersistRetries.WithLabelValues(op).Inc()
		t.log.WithFields(logrus.Fields{
			"user_id":    u.userID,
			"session_id": u.sessionID,
			"operation":  op,
			"attempt":    attempt,
			"retry_in":   wait.String(),
			"error":      err.Error(),
		}).Warn("Session store write failed, retrying")
	})
}

// flagLost records a write that exhausted its retries. The in-memory
// counters already include it, so the durable record now lags behind.
func (t *Tracker) flagLost(ctx context.Context, u *trackedUser, kind entity.LostIncrementKind, seconds int, at time.Time, cause error) {
	metrics.LostIncrements.WithLabelValues(string(kind)).Inc()

	lost := entity.LostIncrement{
		UserID:          u.userID,
		SessionID:       u.sessionID,
		Kind:            kind,
		Seconds:         seconds,
		TotalActiveTime: u.committed,
		At:              at,
		Reason:          cause.Error(),
	}

	fields := logrus.Fields{
		"user_id":           lost.UserID,
		"session_id":        lost.SessionID,
		"kind":              lost.Kind,
		"seconds":           lost.Seconds,
		"total_active_time": lost.TotalActiveTime,
		"error":             lost.Reason,
	}
	t.log.WithFields(fields).Error("Session store write lost after retries; increment acknowledged in memory only")

	if t.reconciler == nil {
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.retry.AttemptTimeout)
	defer cancel()

	if err := t.reconciler.FlagLostIncrement(rctx, lost); err != nil {
		fields["reconcile_error"] = err.Error()
		t.log.WithFields(fields).Error("Failed to flag lost increment for reconciliation")
	}
}

// resolveLostTotal clears the session's lost-seconds tally after a total
// write succeeded. On failure the flag stays set and the next commit tries
// again.
func (t *Tracker) resolveLostTotal(ctx context.Context, u *trackedUser) {
	if t.reconciler == nil {
		u.totalBehind = false
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.retry.AttemptTimeout)
	defer cancel()

	if err := t.reconciler.ResolveLostTotal(rctx, u.sessionID); err != nil {
		t.log.WithFields(logrus.Fields{
			"user_id":    u.userID,
			"session_id": u.sessionID,
			"error":      err.Error(),
		}).Error("Failed to clear reconciled session total")
		return
	}
	u.totalBehind = false

	t.log.WithFields(logrus.Fields{
		"user_id":           u.userID,
		"session_id":        u.sessionID,
		"total_active_time": u.committed,
	}).Info("Stored session total caught up after earlier lost write")
}
