// Package subsonic provides a client for the read and scrobble surface of a
// Subsonic-compatible catalog server.
package subsonic

import (
	"context"
	"crypto/md5" //nolint:gosec // The Subsonic auth scheme mandates md5(password+salt).
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"subvox/internal/core"
)

// Package-level random number generator for per-request salts. The token
// scheme is not a secrecy boundary; it only keeps the password off the wire.
// Guarded by rngMu: the session refill loop and the bus read loop issue
// catalog calls concurrently, and *rand.Rand is not safe for concurrent use.
var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
)

const (
	// SaltLength is the length of the random alphanumeric salt generated
	// freshly for every single request.
	SaltLength = 12

	saltAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

type Client struct {
	config *core.SubsonicConfig
	logger *zap.Logger
	http   *http.Client
}

func NewClient(config *core.SubsonicConfig, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		http: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// authParams builds the authentication query parameters. Re-authentication
// happens per call: a fresh salt and token are computed for every request,
// never cached for the session.
func (c *Client) authParams() url.Values {
	salt := randomSalt()
	sum := md5.Sum([]byte(c.config.Password + salt)) //nolint:gosec

	params := url.Values{}
	params.Set("u", c.config.Username)
	params.Set("t", hex.EncodeToString(sum[:]))
	params.Set("s", salt)
	params.Set("v", c.config.APIVersion)
	params.Set("c", c.config.ClientName)
	params.Set("f", "json")
	return params
}

func randomSalt() string {
	rngMu.Lock()
	defer rngMu.Unlock()

	var b strings.Builder
	for i := 0; i < SaltLength; i++ {
		b.WriteByte(saltAlphabet[rng.Intn(len(saltAlphabet))])
	}
	return b.String()
}

func (c *Client) endpointURL(endpoint string, params url.Values) string {
	auth := c.authParams()
	for key, values := range params {
		for _, v := range values {
			auth.Add(key, v)
		}
	}
	return fmt.Sprintf("%s/rest/%s?%s", strings.TrimRight(c.config.ServerURL, "/"), endpoint, auth.Encode())
}

// get performs one authenticated request and decodes the response envelope.
// Failures come back as *TransportError or *ServerError, never as partial
// payloads.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*wireResponse, error) {
	reqURL := c.endpointURL(endpoint, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// HTML error pages and truncated bodies land here; treated the same
		// as an unreachable server.
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if env.Response.Status != "ok" {
		serverErr := &ServerError{Endpoint: endpoint}
		if env.Response.Error != nil {
			serverErr.Code = env.Response.Error.Code
			serverErr.Message = env.Response.Error.Message
		}
		c.logger.Warn("Catalog call failed",
			zap.String("endpoint", endpoint),
			zap.Int("code", serverErr.Code),
			zap.String("message", serverErr.Message))
		return nil, serverErr
	}

	return &env.Response, nil
}

// Ping verifies connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "ping", nil)
	return err
}

// Search issues one free-text query and returns the matching artists,
// albums and tracks. Any subset may be empty.
func (c *Client) Search(ctx context.Context, query string) (core.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	if c.config.SearchLimit > 0 {
		limit := strconv.Itoa(c.config.SearchLimit)
		params.Set("artistCount", limit)
		params.Set("albumCount", limit)
		params.Set("songCount", limit)
	}

	resp, err := c.get(ctx, "search3", params)
	if err != nil {
		return core.SearchResult{}, err
	}

	var result core.SearchResult
	if resp.SearchResult3 != nil {
		for _, a := range resp.SearchResult3.Artist {
			result.Artists = append(result.Artists, a.toCore())
		}
		for _, a := range resp.SearchResult3.Album {
			result.Albums = append(result.Albums, a.toCore())
		}
		result.Tracks = songsToCore(resp.SearchResult3.Song)
	}

	c.logger.Debug("Catalog search completed",
		zap.String("query", query),
		zap.Int("artists", len(result.Artists)),
		zap.Int("albums", len(result.Albums)),
		zap.Int("tracks", len(result.Tracks)))

	return result, nil
}

// GetArtist returns an artist and its albums.
func (c *Client) GetArtist(ctx context.Context, artistID string) (core.Artist, []core.Album, error) {
	params := url.Values{}
	params.Set("id", artistID)

	resp, err := c.get(ctx, "getArtist", params)
	if err != nil {
		return core.Artist{}, nil, err
	}
	if resp.Artist == nil {
		return core.Artist{}, nil, &TransportError{Endpoint: "getArtist", Err: fmt.Errorf("missing artist payload")}
	}

	albums := make([]core.Album, 0, len(resp.Artist.Album))
	for _, a := range resp.Artist.Album {
		albums = append(albums, a.toCore())
	}
	return resp.Artist.toCore(), albums, nil
}

// GetAlbumTracks returns an album's tracks in catalog order.
func (c *Client) GetAlbumTracks(ctx context.Context, albumID string) ([]core.Track, error) {
	params := url.Values{}
	params.Set("id", albumID)

	resp, err := c.get(ctx, "getAlbum", params)
	if err != nil {
		return nil, err
	}
	if resp.Album == nil {
		return nil, &TransportError{Endpoint: "getAlbum", Err: fmt.Errorf("missing album payload")}
	}
	return songsToCore(resp.Album.Song), nil
}

// GetPlaylists lists all playlists visible to the configured user.
func (c *Client) GetPlaylists(ctx context.Context) ([]core.Playlist, error) {
	resp, err := c.get(ctx, "getPlaylists", nil)
	if err != nil {
		return nil, err
	}

	var playlists []core.Playlist
	if resp.Playlists != nil {
		for _, p := range resp.Playlists.Playlist {
			playlists = append(playlists, p.toCore())
		}
	}
	return playlists, nil
}

// GetPlaylistTracks returns a playlist's entries in order.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistID string) ([]core.Track, error) {
	params := url.Values{}
	params.Set("id", playlistID)

	resp, err := c.get(ctx, "getPlaylist", params)
	if err != nil {
		return nil, err
	}
	if resp.Playlist == nil {
		return nil, &TransportError{Endpoint: "getPlaylist", Err: fmt.Errorf("missing playlist payload")}
	}
	return songsToCore(resp.Playlist.Entry), nil
}

// GetRandomTracks fetches up to count random tracks from the whole catalog.
func (c *Client) GetRandomTracks(ctx context.Context, count int) ([]core.Track, error) {
	params := url.Values{}
	params.Set("size", strconv.Itoa(count))

	resp, err := c.get(ctx, "getRandomSongs", params)
	if err != nil {
		return nil, err
	}
	if resp.RandomSongs == nil {
		return nil, nil
	}
	return songsToCore(resp.RandomSongs.Song), nil
}

// GetSimilarTracks fetches tracks similar to the given artist, the seed for
// radio mode.
func (c *Client) GetSimilarTracks(ctx context.Context, artistID string, count int) ([]core.Track, error) {
	params := url.Values{}
	params.Set("id", artistID)
	params.Set("count", strconv.Itoa(count))

	resp, err := c.get(ctx, "getSimilarSongs2", params)
	if err != nil {
		return nil, err
	}
	if resp.SimilarSongs2 == nil {
		return nil, nil
	}
	return songsToCore(resp.SimilarSongs2.Song), nil
}

// ReportPlay scrobbles a track as now playing.
func (c *Client) ReportPlay(ctx context.Context, trackID string) error {
	params := url.Values{}
	params.Set("id", trackID)

	_, err := c.get(ctx, "scrobble", params)
	if err != nil {
		return err
	}

	c.logger.Debug("Play reported", zap.String("trackID", trackID))
	return nil
}

// StreamURL builds the authenticated download URL the host audio subsystem
// fetches directly. The embedded token is single-use from the server's point
// of view but remains valid; Subsonic tokens do not expire.
func (c *Client) StreamURL(trackID string) string {
	params := url.Values{}
	params.Set("id", trackID)
	return c.endpointURL("download", params)
}
