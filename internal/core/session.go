package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionMode identifies a continuation mode.
type SessionMode string

const (
	// ModeRadio seeds continuation from tracks similar to a resolved artist.
	ModeRadio SessionMode = "radio"
	// ModeRandom seeds continuation from random catalog tracks.
	ModeRandom SessionMode = "random"
)

type batchFetch func(ctx context.Context) ([]Track, error)

// SessionManager owns the continuation loop behind radio and random modes.
// At most one session runs at a time; starting a new one (or any new play
// command) cancels the previous loop before anything else happens. The loop
// polls the queue's remaining count and fetches a fresh batch whenever it
// drops to the low-water mark, backing off exponentially while fetches keep
// failing or coming back empty.
type SessionManager struct {
	queue   *QueueManager
	catalog CatalogClient
	recent  RecentStore
	metrics Metrics
	logger  *zap.Logger
	cfg     *AppConfig

	mu     sync.Mutex
	active *session
}

type session struct {
	mode   SessionMode
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSessionManager(queue *QueueManager, catalog CatalogClient, recent RecentStore,
	cfg *AppConfig, metrics Metrics, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		queue:   queue,
		catalog: catalog,
		recent:  recent,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// StartRadio begins a continuation session seeded from tracks similar to
// the given artist.
func (m *SessionManager) StartRadio(ctx context.Context, artistID string) error {
	fetch := func(ctx context.Context) ([]Track, error) {
		return m.catalog.GetSimilarTracks(ctx, artistID, m.cfg.SimilarBatchSize)
	}
	return m.start(ctx, ModeRadio, fetch)
}

// StartRandom begins a continuation session seeded from random tracks.
func (m *SessionManager) StartRandom(ctx context.Context) error {
	fetch := func(ctx context.Context) ([]Track, error) {
		return m.catalog.GetRandomTracks(ctx, m.cfg.RandomBatchSize)
	}
	return m.start(ctx, ModeRandom, fetch)
}

// start fetches the first batch synchronously so the caller can speak a
// failure immediately, then hands continuation to a background loop.
func (m *SessionManager) start(ctx context.Context, mode SessionMode, fetch batchFetch) error {
	m.CancelActive()
	m.recent.Clear()

	batch, err := fetch(ctx)
	if err != nil {
		m.metrics.RecordRefill(string(mode), "failed")
		return err
	}
	batch = m.filterRecent(batch)
	if len(batch) == 0 {
		m.metrics.RecordRefill(string(mode), "empty")
		return ErrNoTracks
	}

	if err := m.queue.PlayNow(ctx, batch); err != nil {
		return err
	}
	m.markRecent(batch)
	m.metrics.RecordRefill(string(mode), "ok")

	// The loop outlives the intent that started it; only CancelActive or
	// process teardown stops it.
	loopCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		mode:   mode,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.active = s
	m.mu.Unlock()

	go m.run(loopCtx, s, fetch)

	m.logger.Info("Continuation session started",
		zap.String("mode", string(mode)),
		zap.Int("initialBatch", len(batch)))
	return nil
}

func (m *SessionManager) run(ctx context.Context, s *session, fetch batchFetch) {
	defer close(s.done)

	poll := m.cfg.QueuePollInterval
	maxBackoff := m.cfg.RefillBackoffMax
	backoff := poll
	var nextAttempt time.Time

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Continuation session cancelled",
				zap.String("mode", string(s.mode)))
			return
		case <-ticker.C:
		}

		if m.queue.Remaining() > m.cfg.QueueLowWaterMark {
			continue
		}
		if time.Now().Before(nextAttempt) {
			continue
		}

		batch, err := fetch(ctx)
		if err == nil {
			batch = m.filterRecent(batch)
		}
		if err != nil || len(batch) == 0 {
			// A failed or empty batch never terminates the loop; it retries
			// after a growing delay.
			m.metrics.RecordRefill(string(s.mode), refillStatus(err))
			m.logger.Warn("Continuation batch fetch produced nothing",
				zap.String("mode", string(s.mode)),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			nextAttempt = time.Now().Add(backoff)
			backoff = minDuration(backoff*2, maxBackoff)
			continue
		}

		if err := m.queue.Enqueue(ctx, batch); err != nil {
			m.metrics.RecordRefill(string(s.mode), "failed")
			m.logger.Warn("Failed to append continuation batch",
				zap.String("mode", string(s.mode)),
				zap.Error(err))
			nextAttempt = time.Now().Add(backoff)
			backoff = minDuration(backoff*2, maxBackoff)
			continue
		}

		m.markRecent(batch)
		m.metrics.RecordRefill(string(s.mode), "ok")
		backoff = poll
		nextAttempt = time.Time{}
	}
}

// CancelActive stops the running continuation loop, if any, and waits for
// it to finish so a new command never races a dying session.
func (m *SessionManager) CancelActive() {
	m.mu.Lock()
	s := m.active
	m.active = nil
	m.mu.Unlock()

	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Active reports whether a continuation session is running and its mode.
func (m *SessionManager) Active() (SessionMode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return "", false
	}
	return m.active.mode, true
}

func (m *SessionManager) filterRecent(batch []Track) []Track {
	var fresh []Track
	for _, t := range batch {
		if !m.recent.Has(t.ID) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

func (m *SessionManager) markRecent(batch []Track) {
	for _, t := range batch {
		m.recent.Add(t.ID)
	}
}

func refillStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "empty"
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
