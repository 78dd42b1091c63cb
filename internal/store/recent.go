// Package store provides an in-memory recently-played track store backed by
// a Bloom filter and an LRU eviction list.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// RecentTracks remembers which track IDs were recently handed to the player,
// so continuation batches can skip repeats. Capacity-bounded: once full, the
// oldest entries age out and may be played again, which is the desired
// behavior for an endless radio session.
type RecentTracks struct {
	trackIDs          map[string]struct{}
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.RWMutex
	capacity          int
	falsePositiveRate float64
}

// NewRecentTracks creates a store holding at most capacity track IDs.
func NewRecentTracks(capacity int, falsePositiveRate float64) *RecentTracks {
	if capacity <= 0 {
		capacity = 1
	}
	lruCache, _ := lru.New[string, struct{}](capacity)

	return &RecentTracks{
		trackIDs:          make(map[string]struct{}),
		bloom:             bloom.NewWithEstimates(uint(capacity), falsePositiveRate),
		lru:               lruCache,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
	}
}

// Has checks whether a track ID was recently played. The Bloom filter
// rejects most misses without touching the map.
func (rt *RecentTracks) Has(trackID string) bool {
	rt.mutex.RLock()
	defer rt.mutex.RUnlock()

	if !rt.bloom.TestString(trackID) {
		return false
	}

	_, exists := rt.trackIDs[trackID]
	return exists
}

// Add records a track ID, evicting the oldest entry when over capacity.
func (rt *RecentTracks) Add(trackID string) {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	if _, exists := rt.trackIDs[trackID]; exists {
		rt.lru.Add(trackID, struct{}{}) // refresh recency
		return
	}

	rt.trackIDs[trackID] = struct{}{}
	rt.bloom.AddString(trackID)
	rt.lru.Add(trackID, struct{}{})

	for len(rt.trackIDs) > rt.capacity {
		oldestKey, _, ok := rt.lru.GetOldest()
		if !ok {
			break
		}
		delete(rt.trackIDs, oldestKey)
		rt.lru.Remove(oldestKey)
		// The Bloom filter cannot forget; stale positives fall through to
		// the map check and read as misses.
	}
}

// Size returns the number of track IDs currently remembered.
func (rt *RecentTracks) Size() int {
	rt.mutex.RLock()
	defer rt.mutex.RUnlock()
	return len(rt.trackIDs)
}

// Clear forgets everything, for when a new play command supersedes the
// running session.
func (rt *RecentTracks) Clear() {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	rt.trackIDs = make(map[string]struct{})
	rt.bloom = bloom.NewWithEstimates(uint(rt.capacity), rt.falsePositiveRate)
	rt.lru.Purge()
}
