package presence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	workSession "WorkHoursMonitor/internal/api/work_session"
	"WorkHoursMonitor/internal/entity"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

type fakeStore struct {
	mu          sync.Mutex
	logs        map[string][]entity.DetectionLogEntry
	totals      map[string]int
	failAppends int
	failUpdates int
	failWith    error
	appendCalls int
	updateCalls int

	// updateGate, when set, holds the next total update until closed.
	updateGate    chan struct{}
	updateEntered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		logs:   make(map[string][]entity.DetectionLogEntry),
		totals: make(map[string]int),
	}
}

func (s *fakeStore) AppendDetectionLog(_ context.Context, sessionID string, entry entity.DetectionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendCalls++
	if s.failAppends > 0 {
		s.failAppends--
		return s.failure()
	}
	s.logs[sessionID] = append(s.logs[sessionID], entry)
	return nil
}

func (s *fakeStore) UpdateSessionFields(_ context.Context, sessionID string, update entity.WorkSessionUpdate) error {
	s.mu.Lock()
	gate, entered := s.updateGate, s.updateEntered
	s.updateGate, s.updateEntered = nil, nil
	s.mu.Unlock()
	if gate != nil {
		close(entered)
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.failUpdates > 0 {
		s.failUpdates--
		return s.failure()
	}
	if update.TotalActiveTime != nil {
		s.totals[sessionID] = *update.TotalActiveTime
	}
	return nil
}

func (s *fakeStore) failure() error {
	if s.failWith != nil {
		return s.failWith
	}
	return errors.New("mongo: connection reset")
}

func (s *fakeStore) logsFor(sessionID string) []entity.DetectionLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.DetectionLogEntry(nil), s.logs[sessionID]...)
}

func (s *fakeStore) totalFor(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals[sessionID]
}

type fakeReconciler struct {
	mu       sync.Mutex
	lost     []entity.LostIncrement
	resolved []string
}

func (r *fakeReconciler) FlagLostIncrement(_ context.Context, lost entity.LostIncrement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lost = append(r.lost, lost)
	return nil
}

func (r *fakeReconciler) ResolveLostTotal(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, sessionID)
	return nil
}

// tickingClock moves forward by step on every reading.
type tickingClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		AttemptTimeout:  time.Second,
	}
}

func newTestTracker(store *fakeStore, opts ...Option) *Tracker {
	opts = append([]Option{WithRetryPolicy(fastRetry(3))}, opts...)
	return New(store, quietLogger(), opts...)
}

func present(seconds float64) Observation {
	return Observation{FaceDetected: true, EyesDetected: true, Confidence: 0.95, At: at(seconds)}
}

func absent(seconds float64) Observation {
	return Observation{FaceDetected: false, EyesDetected: false, At: at(seconds)}
}

func TestContinuousPresenceCommitsWindow(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	if err := tr.StartTracking("u1", "s1"); err != nil {
		t.Fatalf("StartTracking: %v", err)
	}

	ctx := context.Background()
	var status entity.MonitoringStatus
	for sec := 0; sec < 300; sec += 10 {
		status = tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}

	if status.ActiveTimeSeconds != 0 {
		t.Errorf("active before maturity: got %d, want 0", status.ActiveTimeSeconds)
	}
	if status.CurrentWindowSeconds != 291 {
		t.Errorf("window at t=290: got %v, want 291", status.CurrentWindowSeconds)
	}

	status = tr.ProcessObservation(ctx, "u1", present(300))

	if status.ActiveTimeSeconds != 300 {
		t.Errorf("active after maturity: got %d, want 300", status.ActiveTimeSeconds)
	}
	if status.CurrentWindowSeconds != 0 {
		t.Errorf("window after commit: got %v, want 0", status.CurrentWindowSeconds)
	}

	logs := store.logsFor("s1")
	if len(logs) != 1 {
		t.Fatalf("logs: got %d entries, want 1", len(logs))
	}
	want := entity.DetectionLogEntry{Timestamp: at(300), EyesDetected: true, Duration: 300}
	if logs[0] != want {
		t.Errorf("log entry: got %+v, want %+v", logs[0], want)
	}
	if got := store.totalFor("s1"); got != 300 {
		t.Errorf("persisted total: got %d, want 300", got)
	}
}

func TestSecondWindowCommitsFromZero(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	var status entity.MonitoringStatus
	for sec := 0; sec <= 600; sec += 10 {
		status = tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}

	// The first window commits at t=300 holding 301s; the second starts
	// from zero and reaches 300 exactly at t=600.
	if status.ActiveTimeSeconds != 600 {
		t.Errorf("active: got %d, want 600", status.ActiveTimeSeconds)
	}
	if got := len(store.logsFor("s1")); got != 2 {
		t.Errorf("logs: got %d, want 2", got)
	}
	if got := store.totalFor("s1"); got != 600 {
		t.Errorf("persisted total: got %d, want 600", got)
	}
}

func TestShortAbsenceClosesWindowWithoutLog(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	tr.ProcessObservation(ctx, "u1", present(0))
	status := tr.ProcessObservation(ctx, "u1", present(5))
	if status.CurrentWindowSeconds != 6 {
		t.Errorf("window at t=5: got %v, want 6", status.CurrentWindowSeconds)
	}

	status = tr.ProcessObservation(ctx, "u1", absent(20))

	if status.CurrentWindowSeconds != 0 {
		t.Errorf("window after absence: got %v, want 0", status.CurrentWindowSeconds)
	}
	if status.ActiveTimeSeconds != 0 {
		t.Errorf("active: got %d, want 0", status.ActiveTimeSeconds)
	}
	if got := len(store.logsFor("s1")); got != 0 {
		t.Errorf("logs: got %d, want 0", got)
	}
	if status.EyesDetected == nil || *status.EyesDetected {
		t.Errorf("eyes_detected: got %v, want false", status.EyesDetected)
	}
}

func TestLongGapRestartsWindow(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	tr.ProcessObservation(ctx, "u1", present(0))
	tr.ProcessObservation(ctx, "u1", present(10))
	status := tr.ProcessObservation(ctx, "u1", present(510))

	if status.CurrentWindowSeconds != 1 {
		t.Errorf("window after gap: got %v, want 1", status.CurrentWindowSeconds)
	}
	if status.LastObservationTime == nil || !status.LastObservationTime.Equal(at(510)) {
		t.Errorf("last observation: got %v, want %v", status.LastObservationTime, at(510))
	}

	// The window now starts at t=510, so closing it 50s later is too short
	// to be logged.
	tr.ProcessObservation(ctx, "u1", absent(560))
	if got := len(store.logsFor("s1")); got != 0 {
		t.Errorf("logs: got %d, want 0", got)
	}
}

func TestOutOfOrderObservationRestartsWindow(t *testing.T) {
	tr := newTestTracker(newFakeStore())
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	tr.ProcessObservation(ctx, "u1", present(100))
	tr.ProcessObservation(ctx, "u1", present(105))
	status := tr.ProcessObservation(ctx, "u1", present(50))

	if status.CurrentWindowSeconds != 1 {
		t.Errorf("window after out-of-order frame: got %v, want 1", status.CurrentWindowSeconds)
	}
}

func TestAbandonedWindowLoggedButNotCredited(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	for sec := 0; sec <= 90; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}
	status := tr.ProcessObservation(ctx, "u1", absent(95.5))

	if status.ActiveTimeSeconds != 0 {
		t.Errorf("active: got %d, want 0", status.ActiveTimeSeconds)
	}
	logs := store.logsFor("s1")
	if len(logs) != 1 {
		t.Fatalf("logs: got %d, want 1", len(logs))
	}
	want := entity.DetectionLogEntry{Timestamp: at(95.5), EyesDetected: false, Duration: 95}
	if logs[0] != want {
		t.Errorf("log entry: got %+v, want %+v", logs[0], want)
	}
	if store.updateCalls != 0 {
		t.Errorf("total updates: got %d, want 0", store.updateCalls)
	}
}

func TestAbsenceWithoutWindowIsNoop(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	status := tr.ProcessObservation(context.Background(), "u1", absent(500))
	if !status.IsMonitoring || status.CurrentWindowSeconds != 0 || status.LastObservationTime != nil {
		t.Errorf("status: got %+v", status)
	}
	if store.appendCalls != 0 {
		t.Errorf("append calls: got %d, want 0", store.appendCalls)
	}
}

func TestUntrackedUserIsNotMonitoring(t *testing.T) {
	tr := newTestTracker(newFakeStore())

	status := tr.ProcessObservation(context.Background(), "ghost", present(0))
	if status.IsMonitoring {
		t.Errorf("IsMonitoring: got true, want false")
	}
	if status.Message == "" {
		t.Errorf("expected an explanatory message")
	}
	if _, ok := tr.GetStatus("ghost"); ok {
		t.Errorf("GetStatus: got ok for untracked user")
	}
}

func TestStartTrackingTwiceIsRejected(t *testing.T) {
	tr := newTestTracker(newFakeStore())

	if err := tr.StartTracking("u1", "s1"); err != nil {
		t.Fatalf("first StartTracking: %v", err)
	}
	if err := tr.StartTracking("u1", "s2"); !errors.Is(err, ErrAlreadyTracking) {
		t.Fatalf("second StartTracking: got %v, want ErrAlreadyTracking", err)
	}

	status, _ := tr.GetStatus("u1")
	if status.SessionID != "s1" {
		t.Errorf("session: got %q, want s1", status.SessionID)
	}

	tr.StopTracking("u1")
	if err := tr.StartTracking("u1", "s2"); err != nil {
		t.Fatalf("StartTracking after stop: %v", err)
	}
	status, _ = tr.GetStatus("u1")
	if status.SessionID != "s2" || status.ActiveTimeSeconds != 0 {
		t.Errorf("restarted status: got %+v", status)
	}
}

func TestStopTrackingDropsOpenWindow(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	for sec := 0; sec <= 200; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}
	tr.StopTracking("u1")

	if got := len(store.logsFor("s1")); got != 0 {
		t.Errorf("logs after stop: got %d, want 0", got)
	}
	if store.updateCalls != 0 {
		t.Errorf("updates after stop: got %d, want 0", store.updateCalls)
	}
	if _, ok := tr.GetStatus("u1"); ok {
		t.Errorf("GetStatus after stop: got ok")
	}
	if tr.ActiveCount() != 0 {
		t.Errorf("ActiveCount: got %d, want 0", tr.ActiveCount())
	}

	// Stopping an unknown user is harmless.
	tr.StopTracking("u1")
}

func TestGetStatusIsReadOnly(t *testing.T) {
	tr := newTestTracker(newFakeStore())
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	tr.ProcessObservation(ctx, "u1", present(0))
	tr.ProcessObservation(ctx, "u1", present(8))

	first, ok := tr.GetStatus("u1")
	if !ok {
		t.Fatalf("GetStatus: not tracked")
	}
	second, _ := tr.GetStatus("u1")

	if first.CurrentWindowSeconds != 9 || second.CurrentWindowSeconds != 9 {
		t.Errorf("window: got %v then %v, want 9", first.CurrentWindowSeconds, second.CurrentWindowSeconds)
	}
	if first.EyesDetected != nil || first.FaceDetected != nil {
		t.Errorf("status snapshot should not carry detector fields")
	}
}

func TestCommittedTimeIsMonotonic(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	now := 0.0
	prev := 0
	for i := 0; i < 5000; i++ {
		now += float64(rng.Intn(14)) + rng.Float64()
		obs := present(now)
		if rng.Intn(20) == 0 {
			obs = absent(now)
		}

		status := tr.ProcessObservation(ctx, "u1", obs)

		if status.ActiveTimeSeconds < prev {
			t.Fatalf("step %d: active went from %d to %d", i, prev, status.ActiveTimeSeconds)
		}
		if status.ActiveTimeSeconds%300 != 0 {
			t.Fatalf("step %d: active %d is not a multiple of 300", i, status.ActiveTimeSeconds)
		}
		if status.CurrentWindowSeconds < 0 || status.CurrentWindowSeconds >= 300 {
			t.Fatalf("step %d: window %v out of range", i, status.CurrentWindowSeconds)
		}
		prev = status.ActiveTimeSeconds
	}

	if got := store.totalFor("s1"); got != prev {
		t.Errorf("persisted total: got %d, want %d", got, prev)
	}
	for _, entry := range store.logsFor("s1") {
		if !entry.EyesDetected && entry.Duration <= 60 {
			t.Errorf("abandoned entry with duration %d should not have been logged", entry.Duration)
		}
	}
}

func TestTransientStoreFailureIsRetried(t *testing.T) {
	store := newFakeStore()
	store.failAppends = 2
	reconciler := &fakeReconciler{}
	tr := newTestTracker(store, WithReconciler(reconciler))
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	for sec := 0; sec <= 300; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}

	if store.appendCalls != 3 {
		t.Errorf("append calls: got %d, want 3", store.appendCalls)
	}
	if got := len(store.logsFor("s1")); got != 1 {
		t.Errorf("logs: got %d, want 1", got)
	}
	if len(reconciler.lost) != 0 {
		t.Errorf("lost increments: got %d, want 0", len(reconciler.lost))
	}
}

func TestExhaustedRetriesFlagLostIncrement(t *testing.T) {
	store := newFakeStore()
	store.failUpdates = 100
	reconciler := &fakeReconciler{}
	tr := newTestTracker(store, WithReconciler(reconciler))
	_ = tr.StartTracking("u1", "s1")

	ctx, cancel := context.WithCancel(context.Background())
	for sec := 0; sec < 300; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}
	// A caller that has already gone away must not cut the retries short.
	cancel()
	status := tr.ProcessObservation(ctx, "u1", present(300))

	if status.ActiveTimeSeconds != 300 {
		t.Errorf("active: got %d, want 300", status.ActiveTimeSeconds)
	}
	if store.updateCalls != 3 {
		t.Errorf("update calls: got %d, want 3", store.updateCalls)
	}
	if len(reconciler.lost) != 1 {
		t.Fatalf("lost increments: got %d, want 1", len(reconciler.lost))
	}

	lost := reconciler.lost[0]
	if lost.Kind != entity.LostCommittedTotal || lost.Seconds != 300 || lost.TotalActiveTime != 300 {
		t.Errorf("lost increment: got %+v", lost)
	}
	if lost.SessionID != "s1" || lost.UserID != "u1" || !lost.At.Equal(at(300)) {
		t.Errorf("lost increment identity: got %+v", lost)
	}
}

func TestFailedAbandonedLogIsFlagged(t *testing.T) {
	store := newFakeStore()
	store.failAppends = 100
	reconciler := &fakeReconciler{}
	tr := newTestTracker(store, WithReconciler(reconciler))
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	for sec := 0; sec <= 70; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}
	tr.ProcessObservation(ctx, "u1", absent(75))

	if len(reconciler.lost) != 1 {
		t.Fatalf("lost increments: got %d, want 1", len(reconciler.lost))
	}
	if got := reconciler.lost[0]; got.Kind != entity.LostAbandonedWindow || got.Seconds != 75 {
		t.Errorf("lost increment: got %+v", got)
	}
}

func TestIndependentUsersInParallel(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)

	const users = 40
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		userID := fmt.Sprintf("u%d", i)
		sessionID := fmt.Sprintf("s%d", i)
		if err := tr.StartTracking(userID, sessionID); err != nil {
			t.Fatalf("StartTracking(%s): %v", userID, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for sec := 0; sec <= 300; sec += 10 {
				tr.ProcessObservation(context.Background(), userID, present(float64(sec)))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < users; i++ {
		sessionID := fmt.Sprintf("s%d", i)
		if got := store.totalFor(sessionID); got != 300 {
			t.Errorf("%s total: got %d, want 300", sessionID, got)
		}
		status, ok := tr.GetStatus(fmt.Sprintf("u%d", i))
		if !ok || status.ActiveTimeSeconds != 300 {
			t.Errorf("u%d status: got %+v", i, status)
		}
	}
}

func TestConcurrentObservationsForOneUser(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	_ = tr.StartTracking("u1", "s1")

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sec := 0; sec < 200; sec++ {
				tr.ProcessObservation(context.Background(), "u1", present(float64(sec)))
				tr.GetStatus("u1")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(time.Millisecond)
		tr.StopTracking("u1")
	}()
	wg.Wait()

	if _, ok := tr.GetStatus("u1"); ok {
		t.Errorf("tracker should be gone after stop")
	}
	for _, entry := range store.logsFor("s1") {
		if entry.EyesDetected && entry.Duration != 300 {
			t.Errorf("committed entry with duration %d", entry.Duration)
		}
	}
}

func TestAbandonedLogBoundary(t *testing.T) {
	tests := []struct {
		name     string
		absentAt float64
		wantLogs []entity.DetectionLogEntry
	}{
		{name: "exactly sixty seconds", absentAt: 60},
		{
			name:     "just past sixty seconds",
			absentAt: 60.5,
			wantLogs: []entity.DetectionLogEntry{{Timestamp: at(60.5), EyesDetected: false, Duration: 60}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			tr := newTestTracker(store)
			_ = tr.StartTracking("u1", "s1")

			ctx := context.Background()
			for sec := 0; sec <= 60; sec += 10 {
				tr.ProcessObservation(ctx, "u1", present(float64(sec)))
			}
			tr.ProcessObservation(ctx, "u1", absent(tt.absentAt))

			logs := store.logsFor("s1")
			if len(logs) != len(tt.wantLogs) {
				t.Fatalf("logs: got %+v, want %+v", logs, tt.wantLogs)
			}
			for i := range logs {
				if logs[i] != tt.wantLogs[i] {
					t.Errorf("log %d: got %+v, want %+v", i, logs[i], tt.wantLogs[i])
				}
			}
		})
	}
}

func TestFramesQueuedBehindCommitKeepWindow(t *testing.T) {
	store := newFakeStore()
	store.updateGate = make(chan struct{})
	store.updateEntered = make(chan struct{})
	clk := &tickingClock{next: t0, step: time.Second}
	tr := newTestTracker(store, WithClock(clk))
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	frame := Observation{FaceDetected: true, EyesDetected: true, Confidence: 0.9}

	committed := make(chan entity.MonitoringStatus, 1)
	go func() {
		var status entity.MonitoringStatus
		for i := 0; i < 300; i++ {
			status = tr.ProcessObservation(ctx, "u1", frame)
		}
		committed <- status
	}()

	<-store.updateEntered

	const queued = 5
	var wg sync.WaitGroup
	for i := 0; i < queued; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.ProcessObservation(ctx, "u1", frame)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(store.updateGate)

	status := <-committed
	wg.Wait()

	if status.ActiveTimeSeconds != 300 {
		t.Errorf("active after commit: got %d, want 300", status.ActiveTimeSeconds)
	}
	if status.ObservedAt == nil || !status.ObservedAt.Equal(at(299)) {
		t.Errorf("committing frame stamp: got %v, want %v", status.ObservedAt, at(299))
	}

	got, ok := tr.GetStatus("u1")
	if !ok {
		t.Fatalf("tracker missing")
	}
	if got.CurrentWindowSeconds != queued {
		t.Errorf("window after queued frames: got %v, want %d", got.CurrentWindowSeconds, queued)
	}
	if got.ActiveTimeSeconds != 300 {
		t.Errorf("active: got %d, want 300", got.ActiveTimeSeconds)
	}
}

func TestExplicitObservationTimeIsKept(t *testing.T) {
	clk := &tickingClock{next: t0.Add(time.Hour), step: time.Second}
	tr := newTestTracker(newFakeStore(), WithClock(clk))
	_ = tr.StartTracking("u1", "s1")

	status := tr.ProcessObservation(context.Background(), "u1", present(5))
	if status.ObservedAt == nil || !status.ObservedAt.Equal(at(5)) {
		t.Errorf("observed at: got %v, want %v", status.ObservedAt, at(5))
	}
}

func TestLostLogEntryLeavesTotalReconciled(t *testing.T) {
	store := newFakeStore()
	store.failAppends = 100
	reconciler := &fakeReconciler{}
	tr := newTestTracker(store, WithReconciler(reconciler))
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	for sec := 0; sec <= 300; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}

	if got := store.totalFor("s1"); got != 300 {
		t.Errorf("stored total: got %d, want 300", got)
	}
	if len(reconciler.lost) != 1 {
		t.Fatalf("lost increments: got %d, want 1", len(reconciler.lost))
	}
	if got := reconciler.lost[0]; got.Kind != entity.LostCommittedLog || got.Seconds != 300 {
		t.Errorf("lost increment: got %+v", got)
	}
	if len(reconciler.resolved) != 0 {
		t.Errorf("nothing to resolve, got %v", reconciler.resolved)
	}
}

func TestLaterCommitResolvesLostTotal(t *testing.T) {
	store := newFakeStore()
	store.failUpdates = 3
	reconciler := &fakeReconciler{}
	tr := newTestTracker(store, WithReconciler(reconciler))
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	for sec := 0; sec <= 300; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}

	if got := store.totalFor("s1"); got != 0 {
		t.Errorf("stored total after failed write: got %d, want 0", got)
	}
	if len(reconciler.lost) != 1 || reconciler.lost[0].Kind != entity.LostCommittedTotal {
		t.Fatalf("lost increments: got %+v", reconciler.lost)
	}
	if len(reconciler.resolved) != 0 {
		t.Fatalf("resolved too early: %v", reconciler.resolved)
	}

	for sec := 310; sec <= 600; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}

	if got := store.totalFor("s1"); got != 600 {
		t.Errorf("stored total after recovery: got %d, want 600", got)
	}
	if len(reconciler.resolved) != 1 || reconciler.resolved[0] != "s1" {
		t.Errorf("resolved: got %v, want [s1]", reconciler.resolved)
	}

	for sec := 610; sec <= 900; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}
	if len(reconciler.resolved) != 1 {
		t.Errorf("resolve should run once per recovery, got %v", reconciler.resolved)
	}
}

func TestMissingSessionIsNotRetried(t *testing.T) {
	store := newFakeStore()
	store.failUpdates = 100
	store.failWith = workSession.ErrSessionNotFound
	reconciler := &fakeReconciler{}
	tr := newTestTracker(store, WithReconciler(reconciler), WithRetryPolicy(fastRetry(5)))
	_ = tr.StartTracking("u1", "s1")

	ctx := context.Background()
	for sec := 0; sec <= 300; sec += 10 {
		tr.ProcessObservation(ctx, "u1", present(float64(sec)))
	}

	if store.updateCalls != 1 {
		t.Errorf("update calls: got %d, want 1", store.updateCalls)
	}
	if len(reconciler.lost) != 1 || reconciler.lost[0].Kind != entity.LostCommittedTotal {
		t.Fatalf("lost increments: got %+v", reconciler.lost)
	}
	if reconciler.lost[0].Reason != workSession.ErrSessionNotFound.Error() {
		t.Errorf("reason: got %q", reconciler.lost[0].Reason)
	}
}
