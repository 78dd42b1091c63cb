package core

import (
	"context"
	"errors"
	"time"
)

// Track is a playable catalog entry. Immutable once fetched; the catalog
// server is the source of truth.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	AlbumID  string
	Duration time.Duration
}

type Album struct {
	ID        string
	Name      string
	Artist    string
	SongCount int
}

type Artist struct {
	ID         string
	Name       string
	AlbumCount int
}

type Playlist struct {
	ID        string
	Name      string
	Owner     string
	SongCount int
}

// SearchResult holds the three independent candidate sets one free-text
// catalog query returns. Any subset may be empty.
type SearchResult struct {
	Artists []Artist
	Albums  []Album
	Tracks  []Track
}

// ErrNoTracks is returned when a resolution or batch fetch produced nothing
// playable. Callers turn it into a spoken "found nothing" response.
var ErrNoTracks = errors.New("no playable tracks found")

// CatalogClient is the read/report surface of the remote music catalog.
type CatalogClient interface {
	Ping(ctx context.Context) error
	Search(ctx context.Context, query string) (SearchResult, error)
	GetArtist(ctx context.Context, artistID string) (Artist, []Album, error)
	GetAlbumTracks(ctx context.Context, albumID string) ([]Track, error)
	GetPlaylists(ctx context.Context) ([]Playlist, error)
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]Track, error)
	GetRandomTracks(ctx context.Context, count int) ([]Track, error)
	GetSimilarTracks(ctx context.Context, artistID string, count int) ([]Track, error)
	ReportPlay(ctx context.Context, trackID string) error
	StreamURL(trackID string) string
}

// Player is the host audio subsystem's queue surface. Both operations take
// fully-built stream URLs; the host does the actual decoding and output.
type Player interface {
	ReplaceQueue(ctx context.Context, urls []string) error
	AppendQueue(ctx context.Context, urls []string) error
}

// RecentStore remembers track IDs recently handed to the player so that
// continuation batches do not repeat themselves.
type RecentStore interface {
	Has(trackID string) bool
	Add(trackID string)
	Size() int
	Clear()
}

// Metrics receives operational counters from the core components. The HTTP
// server provides the Prometheus-backed implementation.
type Metrics interface {
	RecordIntent(intent, status string)
	RecordScrobble()
	RecordRefill(mode, status string)
	SetQueueRemaining(count int)
}

// NopMetrics discards all recordings. Used in tests and when the ops server
// is disabled.
type NopMetrics struct{}

func (NopMetrics) RecordIntent(string, string) {}
func (NopMetrics) RecordScrobble()             {}
func (NopMetrics) RecordRefill(string, string) {}
func (NopMetrics) SetQueueRemaining(int)       {}
