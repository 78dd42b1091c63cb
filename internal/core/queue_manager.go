package core

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// QueueManager owns the playback queue state: the title→id map used for
// scrobble correlation and the remaining-count heuristic used by
// continuation sessions. One instance lives for the whole service run; all
// mutation goes through its methods.
//
// Duplicate titles within one batch overwrite each other in the map
// (last write wins), so scrobble correlation for such titles is best-effort.
//
// The remaining count is a heuristic, not a ground-truth playback position:
// it only observes next/previous signals and can drift when the user seeks
// or stops outside those. It must only ever be read as "is it low".
type QueueManager struct {
	player  Player
	catalog CatalogClient
	metrics Metrics
	logger  *zap.Logger

	mu        sync.Mutex
	titleToID map[string]string
	remaining int
	rng       *rand.Rand
}

func NewQueueManager(player Player, catalog CatalogClient, metrics Metrics, logger *zap.Logger) *QueueManager {
	return &QueueManager{
		player:    player,
		catalog:   catalog,
		metrics:   metrics,
		logger:    logger,
		titleToID: make(map[string]string),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Shuffle order needs no crypto randomness.
	}
}

// PlayNow replaces the playback queue with the given tracks in randomized
// order. The title→id map is rebuilt from scratch before the player command
// is issued, so the scrobble correlator never observes a partial map.
func (q *QueueManager) PlayNow(ctx context.Context, tracks []Track) error {
	shuffled := q.shuffledCopy(tracks)

	q.mu.Lock()
	q.titleToID = make(map[string]string, len(shuffled))
	for _, t := range shuffled {
		q.titleToID[t.Title] = t.ID
	}
	q.remaining = len(shuffled)
	q.mu.Unlock()

	q.metrics.SetQueueRemaining(len(shuffled))
	q.logger.Info("Replacing playback queue",
		zap.Int("tracks", len(shuffled)))

	return q.player.ReplaceQueue(ctx, q.streamURLs(shuffled))
}

// Enqueue appends the given tracks to the playback queue. Only the new
// batch is shuffled among itself; it lands after everything already queued.
func (q *QueueManager) Enqueue(ctx context.Context, tracks []Track) error {
	shuffled := q.shuffledCopy(tracks)

	q.mu.Lock()
	for _, t := range shuffled {
		q.titleToID[t.Title] = t.ID
	}
	q.remaining += len(shuffled)
	remaining := q.remaining
	q.mu.Unlock()

	q.metrics.SetQueueRemaining(remaining)
	q.logger.Info("Appending to playback queue",
		zap.Int("tracks", len(shuffled)),
		zap.Int("remaining", remaining))

	return q.player.AppendQueue(ctx, q.streamURLs(shuffled))
}

// OnAdvance records that playback moved to the next track.
func (q *QueueManager) OnAdvance() {
	q.mu.Lock()
	if q.remaining > 0 {
		q.remaining--
	}
	remaining := q.remaining
	q.mu.Unlock()

	q.metrics.SetQueueRemaining(remaining)
}

// OnRetreat records that playback returned to the previous track.
func (q *QueueManager) OnRetreat() {
	q.mu.Lock()
	q.remaining++
	remaining := q.remaining
	q.mu.Unlock()

	q.metrics.SetQueueRemaining(remaining)
}

// Remaining returns the heuristic count of unplayed queue entries.
func (q *QueueManager) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining
}

// LookupID maps a reported track title back to its catalog id. The player
// may report titles the queue never saw; those simply miss.
func (q *QueueManager) LookupID(title string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, ok := q.titleToID[title]
	return id, ok
}

func (q *QueueManager) shuffledCopy(tracks []Track) []Track {
	shuffled := make([]Track, len(tracks))
	copy(shuffled, tracks)

	q.mu.Lock()
	q.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	q.mu.Unlock()

	return shuffled
}

func (q *QueueManager) streamURLs(tracks []Track) []string {
	urls := make([]string, 0, len(tracks))
	for _, t := range tracks {
		urls = append(urls, q.catalog.StreamURL(t.ID))
	}
	return urls
}
