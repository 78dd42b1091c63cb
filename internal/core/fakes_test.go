package core

import (
	"context"
	"sync"
)

// fakeCatalog implements CatalogClient with overridable behavior per method.
// Unset functions return empty results.
type fakeCatalog struct {
	mu sync.Mutex

	searchFn         func(query string) (SearchResult, error)
	artistFn         func(artistID string) (Artist, []Album, error)
	albumTracksFn    func(albumID string) ([]Track, error)
	playlistsFn      func() ([]Playlist, error)
	playlistTracksFn func(playlistID string) ([]Track, error)
	randomFn         func(count int) ([]Track, error)
	similarFn        func(artistID string, count int) ([]Track, error)
	reportErr        error

	reported []string
}

func (f *fakeCatalog) Ping(context.Context) error { return nil }

func (f *fakeCatalog) Search(_ context.Context, query string) (SearchResult, error) {
	if f.searchFn == nil {
		return SearchResult{}, nil
	}
	return f.searchFn(query)
}

func (f *fakeCatalog) GetArtist(_ context.Context, artistID string) (Artist, []Album, error) {
	if f.artistFn == nil {
		return Artist{}, nil, nil
	}
	return f.artistFn(artistID)
}

func (f *fakeCatalog) GetAlbumTracks(_ context.Context, albumID string) ([]Track, error) {
	if f.albumTracksFn == nil {
		return nil, nil
	}
	return f.albumTracksFn(albumID)
}

func (f *fakeCatalog) GetPlaylists(context.Context) ([]Playlist, error) {
	if f.playlistsFn == nil {
		return nil, nil
	}
	return f.playlistsFn()
}

func (f *fakeCatalog) GetPlaylistTracks(_ context.Context, playlistID string) ([]Track, error) {
	if f.playlistTracksFn == nil {
		return nil, nil
	}
	return f.playlistTracksFn(playlistID)
}

func (f *fakeCatalog) GetRandomTracks(_ context.Context, count int) ([]Track, error) {
	if f.randomFn == nil {
		return nil, nil
	}
	return f.randomFn(count)
}

func (f *fakeCatalog) GetSimilarTracks(_ context.Context, artistID string, count int) ([]Track, error) {
	if f.similarFn == nil {
		return nil, nil
	}
	return f.similarFn(artistID, count)
}

func (f *fakeCatalog) ReportPlay(_ context.Context, trackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return f.reportErr
	}
	f.reported = append(f.reported, trackID)
	return nil
}

func (f *fakeCatalog) StreamURL(trackID string) string {
	return "stream://" + trackID
}

func (f *fakeCatalog) reportedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.reported))
	copy(out, f.reported)
	return out
}

// fakePlayer implements Player and records every queue command.
type fakePlayer struct {
	mu       sync.Mutex
	replaced [][]string
	appended [][]string
	err      error
}

func (f *fakePlayer) ReplaceQueue(_ context.Context, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replaced = append(f.replaced, urls)
	return nil
}

func (f *fakePlayer) AppendQueue(_ context.Context, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, urls)
	return nil
}

func (f *fakePlayer) replaceCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.replaced))
	copy(out, f.replaced)
	return out
}

func (f *fakePlayer) appendCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.appended))
	copy(out, f.appended)
	return out
}

// fakeRecent implements RecentStore with a plain map.
type fakeRecent struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newFakeRecent() *fakeRecent {
	return &fakeRecent{ids: make(map[string]struct{})}
}

func (f *fakeRecent) Has(trackID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[trackID]
	return ok
}

func (f *fakeRecent) Add(trackID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[trackID] = struct{}{}
}

func (f *fakeRecent) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

func (f *fakeRecent) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = make(map[string]struct{})
}
