package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func sessionTestConfig() *AppConfig {
	cfg := DefaultConfig().App
	cfg.QueuePollInterval = 10 * time.Millisecond
	cfg.RefillBackoffMax = 50 * time.Millisecond
	cfg.RandomBatchSize = 3
	cfg.SimilarBatchSize = 3
	return &cfg
}

func newTestSession(catalog *fakeCatalog) (*SessionManager, *QueueManager, *fakePlayer) {
	player := &fakePlayer{}
	qm := NewQueueManager(player, catalog, NopMetrics{}, zap.NewNop())
	sm := NewSessionManager(qm, catalog, newFakeRecent(), sessionTestConfig(), NopMetrics{}, zap.NewNop())
	return sm, qm, player
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSessionManager_RandomPlaysInitialBatch(t *testing.T) {
	var batchNum atomic.Int32
	catalog := &fakeCatalog{
		randomFn: func(int) ([]Track, error) {
			n := batchNum.Add(1)
			switch n {
			case 1:
				return tracks("r1", "r2", "r3"), nil
			default:
				return tracks("r4", "r5"), nil
			}
		},
	}
	sm, qm, player := newTestSession(catalog)
	defer sm.CancelActive()

	if err := sm.StartRandom(context.Background()); err != nil {
		t.Fatalf("StartRandom() error = %v", err)
	}

	if len(player.replaceCalls()) != 1 {
		t.Fatalf("replace calls = %d, want 1", len(player.replaceCalls()))
	}
	if got := qm.Remaining(); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}
	if mode, active := sm.Active(); !active || mode != ModeRandom {
		t.Errorf("Active() = %v, %v; want random, true", mode, active)
	}
}

func TestSessionManager_RefillsAtLowWaterMark(t *testing.T) {
	var batchNum atomic.Int32
	catalog := &fakeCatalog{
		randomFn: func(int) ([]Track, error) {
			n := batchNum.Add(1)
			if n == 1 {
				return tracks("r1", "r2", "r3"), nil
			}
			return tracks("r4", "r5"), nil
		},
	}
	sm, qm, player := newTestSession(catalog)
	defer sm.CancelActive()

	if err := sm.StartRandom(context.Background()); err != nil {
		t.Fatalf("StartRandom() error = %v", err)
	}

	// Above the low-water mark: no refill should happen yet.
	time.Sleep(50 * time.Millisecond)
	if calls := len(player.appendCalls()); calls != 0 {
		t.Fatalf("append calls before drain = %d, want 0", calls)
	}

	// Drain to the low-water mark; the loop should append a fresh batch.
	qm.OnAdvance()
	qm.OnAdvance()

	waitFor(t, time.Second, func() bool {
		return len(player.appendCalls()) >= 1
	})

	if got := qm.Remaining(); got < 3 {
		t.Errorf("Remaining() after refill = %d, want >= 3", got)
	}
}

func TestSessionManager_RefillSkipsRecentlyPlayed(t *testing.T) {
	var batchNum atomic.Int32
	catalog := &fakeCatalog{
		randomFn: func(int) ([]Track, error) {
			if batchNum.Add(1) == 1 {
				return tracks("r1", "r2"), nil
			}
			// Server keeps returning r1, already played.
			return tracks("r1", "r9"), nil
		},
	}
	sm, qm, player := newTestSession(catalog)
	defer sm.CancelActive()

	if err := sm.StartRandom(context.Background()); err != nil {
		t.Fatalf("StartRandom() error = %v", err)
	}

	qm.OnAdvance()
	waitFor(t, time.Second, func() bool {
		return len(player.appendCalls()) >= 1
	})

	appended := player.appendCalls()[0]
	for _, url := range appended {
		if url == "stream://r1" {
			t.Errorf("recently played track r1 was re-queued: %v", appended)
		}
	}
}

func TestSessionManager_FailedFetchRetriesWithBackoff(t *testing.T) {
	var calls atomic.Int32
	catalog := &fakeCatalog{
		randomFn: func(int) ([]Track, error) {
			n := calls.Add(1)
			switch {
			case n == 1:
				return tracks("r1"), nil
			case n < 4:
				return nil, errors.New("catalog unavailable")
			default:
				return tracks("r2"), nil
			}
		},
	}
	sm, _, player := newTestSession(catalog)
	defer sm.CancelActive()

	if err := sm.StartRandom(context.Background()); err != nil {
		t.Fatalf("StartRandom() error = %v", err)
	}

	// Queue starts at the low-water mark (one track), so the loop fetches
	// immediately, fails twice, then succeeds after backing off.
	waitFor(t, 2*time.Second, func() bool {
		return len(player.appendCalls()) >= 1
	})
}

func TestSessionManager_StartRadioFailurePropagates(t *testing.T) {
	catalog := &fakeCatalog{
		similarFn: func(string, int) ([]Track, error) {
			return nil, nil
		},
	}
	sm, _, _ := newTestSession(catalog)

	err := sm.StartRadio(context.Background(), "ar1")
	if !errors.Is(err, ErrNoTracks) {
		t.Errorf("StartRadio() error = %v, want ErrNoTracks", err)
	}
	if _, active := sm.Active(); active {
		t.Error("failed start left a session active")
	}
}

func TestSessionManager_NewSessionCancelsPrevious(t *testing.T) {
	catalog := &fakeCatalog{
		randomFn: func(int) ([]Track, error) {
			return tracks("r1", "r2", "r3"), nil
		},
		similarFn: func(string, int) ([]Track, error) {
			return tracks("s1", "s2", "s3"), nil
		},
	}
	sm, _, _ := newTestSession(catalog)
	defer sm.CancelActive()

	if err := sm.StartRandom(context.Background()); err != nil {
		t.Fatalf("StartRandom() error = %v", err)
	}
	if err := sm.StartRadio(context.Background(), "ar1"); err != nil {
		t.Fatalf("StartRadio() error = %v", err)
	}

	mode, active := sm.Active()
	if !active || mode != ModeRadio {
		t.Errorf("Active() = %v, %v; want radio, true", mode, active)
	}
}

func TestSessionManager_CancelActiveStopsLoop(t *testing.T) {
	catalog := &fakeCatalog{
		randomFn: func(int) ([]Track, error) {
			return tracks("r1"), nil
		},
	}
	sm, _, player := newTestSession(catalog)

	if err := sm.StartRandom(context.Background()); err != nil {
		t.Fatalf("StartRandom() error = %v", err)
	}

	sm.CancelActive()
	if _, active := sm.Active(); active {
		t.Error("session still active after CancelActive")
	}

	// No more appends may arrive once the loop is gone.
	appendsAtCancel := len(player.appendCalls())
	time.Sleep(100 * time.Millisecond)
	if got := len(player.appendCalls()); got != appendsAtCancel {
		t.Errorf("append calls grew after cancel: %d -> %d", appendsAtCancel, got)
	}
}
