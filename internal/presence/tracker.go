package presence

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/clock"
	"WorkHoursMonitor/pkg/metrics"
)

// Tracker is the registry of monitored users. The map lock only guards
// membership; each user's window is guarded by that user's own lock, so
// observations for different users never wait on each other.
type Tracker struct {
	log        *logrus.Logger
	store      SessionStore
	reconciler Reconciler
	retry      RetryPolicy
	clock      clock.Clock

	mu    sync.RWMutex
	users map[string]*trackedUser
}

type trackedUser struct {
	mu sync.Mutex

	userID    string
	sessionID string
	stopped   bool

	windowOpen        bool
	windowStart       time.Time
	windowAccumulated float64
	lastObservation   time.Time
	committed         int

	// totalBehind is set while the stored total_active_time lags committed.
	totalBehind bool
}

func New(store SessionStore, log *logrus.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		log:   log,
		store: store,
		retry: DefaultRetryPolicy(),
		clock: clock.Real(),
		users: make(map[string]*trackedUser),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartTracking registers a zeroed tracker for userID bound to sessionID.
// It refuses to replace a tracker that is already running.
func (t *Tracker) StartTracking(userID, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.users[userID]; ok {
		return ErrAlreadyTracking
	}

	t.users[userID] = &trackedUser{userID: userID, sessionID: sessionID}
	metrics.ActiveTrackers.Set(float64(len(t.users)))

	t.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sessionID,
	}).Info("Started presence tracking")

	return nil
}

// StopTracking discards the user's tracker. An open window is dropped
// without being logged or credited. Once StopTracking returns, the
// discarded tracker issues no further store writes.
func (t *Tracker) StopTracking(userID string) {
	t.mu.Lock()
	u, ok := t.users[userID]
	if ok {
		delete(t.users, userID)
		metrics.ActiveTrackers.Set(float64(len(t.users)))
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	u.mu.Lock()
	u.stopped = true
	sessionID := u.sessionID
	committed := u.committed
	u.mu.Unlock()

	t.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"session_id":     sessionID,
		"active_seconds": committed,
	}).Info("Stopped presence tracking")
}

// ProcessObservation advances the user's window with one detector result
// and returns the resulting snapshot. Users without a tracker get a
// non-monitoring status rather than an error. ObservedAt on a monitoring
// snapshot is the time the observation was applied at.
func (t *Tracker) ProcessObservation(ctx context.Context, userID string, obs Observation) entity.MonitoringStatus {
	metrics.TrackObservation(obs.EyesDetected)

	u := t.lookup(userID)
	if u == nil {
		return NotMonitoring()
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.stopped {
		return NotMonitoring()
	}

	if obs.At.IsZero() {
		obs.At = t.clock.Now()
	}

	if obs.EyesDetected {
		t.observePresent(ctx, u, obs.At)
	} else {
		t.observeAbsent(ctx, u, obs.At)
	}

	status := u.snapshot()
	eyes, face := obs.EyesDetected, obs.FaceDetected
	status.EyesDetected = &eyes
	status.FaceDetected = &face
	observedAt := obs.At
	status.ObservedAt = &observedAt

	return status
}

// GetStatus reports the user's current snapshot without changing it.
func (t *Tracker) GetStatus(userID string) (entity.MonitoringStatus, bool) {
	u := t.lookup(userID)
	if u == nil {
		return entity.MonitoringStatus{}, false
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.stopped {
		return entity.MonitoringStatus{}, false
	}
	return u.snapshot(), true
}

func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users)
}

func (t *Tracker) lookup(userID string) *trackedUser {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.users[userID]
}

func (t *Tracker) observePresent(ctx context.Context, u *trackedUser, now time.Time) {
	switch {
	case !u.windowOpen:
		u.openWindow(now, 1)
	default:
		gap := now.Sub(u.lastObservation)
		if gap < 0 || gap > GapTolerance {
			// Silence (or an out-of-order frame) restarts the window; the
			// stale accumulation is dropped without a log entry.
			u.openWindow(now, 1)
		} else {
			u.windowAccumulated += gap.Seconds()
		}
	}
	u.lastObservation = now

	if u.windowAccumulated >= MaturityThreshold.Seconds() {
		t.commitWindow(ctx, u, now)
	}
}

func (t *Tracker) observeAbsent(ctx context.Context, u *trackedUser, now time.Time) {
	if !u.windowOpen {
		return
	}

	span := now.Sub(u.windowStart)
	u.closeWindow()

	if span <= AbandonedLogMinimum {
		return
	}

	seconds := int(math.Floor(span.Seconds()))
	entry := entity.DetectionLogEntry{Timestamp: now, EyesDetected: false, Duration: seconds}
	metrics.AbandonedWindowsLogged.Inc()

	err := t.persist(ctx, u, "append_detection_log", func(ctx context.Context) error {
		return t.store.AppendDetectionLog(ctx, u.sessionID, entry)
	})
	if err != nil {
		t.flagLost(ctx, u, entity.LostAbandonedWindow, seconds, now, err)
	}
}

func (t *Tracker) commitWindow(ctx context.Context, u *trackedUser, now time.Time) {
	seconds := int(MaturityThreshold.Seconds())

	u.committed += seconds
	u.openWindow(now, 0)
	metrics.WindowsCommitted.Inc()

	entry := entity.DetectionLogEntry{Timestamp: now, EyesDetected: true, Duration: seconds}
	total := u.committed

	appendErr := t.persist(ctx, u, "append_detection_log", func(ctx context.Context) error {
		return t.store.AppendDetectionLog(ctx, u.sessionID, entry)
	})
	updateErr := t.persist(ctx, u, "update_total_active_time", func(ctx context.Context) error {
		return t.store.UpdateSessionFields(ctx, u.sessionID, entity.WorkSessionUpdate{TotalActiveTime: &total})
	})

	if updateErr != nil {
		u.totalBehind = true
		t.flagLost(ctx, u, entity.LostCommittedTotal, seconds, now, updateErr)
	} else if u.totalBehind {
		t.resolveLostTotal(ctx, u)
	}
	if appendErr != nil {
		t.flagLost(ctx, u, entity.LostCommittedLog, seconds, now, appendErr)
	}
	if appendErr != nil || updateErr != nil {
		return
	}

	t.log.WithFields(logrus.Fields{
		"user_id":           u.userID,
		"session_id":        u.sessionID,
		"total_active_time": total,
	}).Debug("Committed presence window")
}

func (u *trackedUser) openWindow(at time.Time, accumulated float64) {
	u.windowOpen = true
	u.windowStart = at
	u.windowAccumulated = accumulated
}

func (u *trackedUser) closeWindow() {
	u.windowOpen = false
	u.windowStart = time.Time{}
	u.windowAccumulated = 0
}

func (u *trackedUser) snapshot() entity.MonitoringStatus {
	status := entity.MonitoringStatus{
		IsMonitoring:         true,
		SessionID:            u.sessionID,
		ActiveTimeSeconds:    u.committed,
		CurrentWindowSeconds: u.windowAccumulated,
	}
	if !u.lastObservation.IsZero() {
		last := u.lastObservation
		status.LastObservationTime = &last
	}
	return status
}

// NotMonitoring is the status reported for users without a running tracker.
func NotMonitoring() entity.MonitoringStatus {
	return entity.MonitoringStatus{IsMonitoring: false, Message: "No active work session"}
}
