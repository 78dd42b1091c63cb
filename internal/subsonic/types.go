package subsonic

import (
	"time"

	"subvox/internal/core"
)

// Wire format of the Subsonic REST API (JSON flavor). Every response is
// wrapped in a "subsonic-response" envelope with a status field; payload
// members are present only on success.

type envelope struct {
	Response wireResponse `json:"subsonic-response"`
}

type wireResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Error         *wireError        `json:"error"`
	SearchResult3 *wireSearchResult `json:"searchResult3"`
	Artist        *wireArtist       `json:"artist"`
	Album         *wireAlbum        `json:"album"`
	Playlists     *wirePlaylists    `json:"playlists"`
	Playlist      *wirePlaylist     `json:"playlist"`
	RandomSongs   *wireSongList     `json:"randomSongs"`
	SimilarSongs2 *wireSongList     `json:"similarSongs2"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wireSearchResult struct {
	Artist []wireArtist `json:"artist"`
	Album  []wireAlbum  `json:"album"`
	Song   []wireSong   `json:"song"`
}

type wireArtist struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	AlbumCount int         `json:"albumCount"`
	Album      []wireAlbum `json:"album"`
}

type wireAlbum struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Artist    string     `json:"artist"`
	SongCount int        `json:"songCount"`
	Song      []wireSong `json:"song"`
}

type wireSong struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	AlbumID  string `json:"albumId"`
	Duration int    `json:"duration"`
}

type wirePlaylists struct {
	Playlist []wirePlaylist `json:"playlist"`
}

type wirePlaylist struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Owner     string     `json:"owner"`
	SongCount int        `json:"songCount"`
	Entry     []wireSong `json:"entry"`
}

type wireSongList struct {
	Song []wireSong `json:"song"`
}

func (s wireSong) toCore() core.Track {
	return core.Track{
		ID:       s.ID,
		Title:    s.Title,
		Artist:   s.Artist,
		Album:    s.Album,
		AlbumID:  s.AlbumID,
		Duration: time.Duration(s.Duration) * time.Second,
	}
}

func (a wireArtist) toCore() core.Artist {
	return core.Artist{
		ID:         a.ID,
		Name:       a.Name,
		AlbumCount: a.AlbumCount,
	}
}

func (a wireAlbum) toCore() core.Album {
	return core.Album{
		ID:        a.ID,
		Name:      a.Name,
		Artist:    a.Artist,
		SongCount: a.SongCount,
	}
}

func (p wirePlaylist) toCore() core.Playlist {
	return core.Playlist{
		ID:        p.ID,
		Name:      p.Name,
		Owner:     p.Owner,
		SongCount: p.SongCount,
	}
}

func songsToCore(songs []wireSong) []core.Track {
	tracks := make([]core.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, s.toCore())
	}
	return tracks
}
