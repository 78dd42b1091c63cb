package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"subvox/internal/i18n"
	"subvox/internal/voice"
	"subvox/pkg/text"
)

// maxSpokenPlaylists caps how many playlist names get read aloud when the
// user asks for a playlist without naming one.
const maxSpokenPlaylists = 5

// Dispatcher turns resolved voice intents into catalog lookups and playback
// commands. Intents are handled one at a time; any new play command cancels
// a running continuation session before doing its own work.
type Dispatcher struct {
	config    *Config
	frontend  voice.Frontend
	catalog   CatalogClient
	queue     *QueueManager
	sessions  *SessionManager
	scrobbler *Scrobbler
	resolver  *Resolver
	parser    *text.Parser
	localizer *i18n.Localizer
	metrics   Metrics
	logger    *zap.Logger

	mu sync.Mutex // serializes intent handling
}

func NewDispatcher(
	config *Config,
	frontend voice.Frontend,
	catalog CatalogClient,
	player Player,
	recent RecentStore,
	metrics Metrics,
	logger *zap.Logger,
) *Dispatcher {
	queue := NewQueueManager(player, catalog, metrics, logger.Named("queue"))

	return &Dispatcher{
		config:    config,
		frontend:  frontend,
		catalog:   catalog,
		queue:     queue,
		sessions:  NewSessionManager(queue, catalog, recent, &config.App, metrics, logger.Named("session")),
		scrobbler: NewScrobbler(queue, catalog, metrics, logger.Named("scrobble")),
		resolver:  NewResolver(config.App.MatchThreshold),
		parser:    text.NewParser(),
		localizer: i18n.NewLocalizer(config.App.Language),
		metrics:   metrics,
		logger:    logger,
	}
}

// Start registers the event handlers and runs the voice front end until ctx
// is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("Starting intent dispatcher")

	if err := d.catalog.Ping(ctx); err != nil {
		// Degraded start: every lookup will speak "found nothing" until the
		// server comes back.
		d.logger.Warn("Catalog server unreachable at startup", zap.Error(err))
	}

	d.frontend.SetIntentHandler(func(intent *voice.Intent) {
		d.handleIntent(ctx, intent)
	})
	d.frontend.SetPlaybackHandler(func(event *voice.PlaybackEvent) {
		d.handlePlayback(ctx, event)
	})

	err := d.frontend.Start(ctx)
	d.sessions.CancelActive()
	if err != nil {
		return fmt.Errorf("voice frontend stopped: %w", err)
	}
	return nil
}

// Stop cancels any continuation session and disconnects the front end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.sessions.CancelActive()
	return d.frontend.Stop(ctx)
}

func (d *Dispatcher) handleIntent(ctx context.Context, intent *voice.Intent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	query := d.parseQuery(intent)
	d.logger.Info("Handling intent",
		zap.String("intent", intent.Name),
		zap.String("title", query.Title),
		zap.String("artist", query.Artist))

	// Every new command supersedes a running radio/random session.
	d.sessions.CancelActive()

	var err error
	switch intent.Name {
	case voice.IntentPlayMusic:
		err = d.handleMusic(ctx, query, false)
	case voice.IntentQueueMusic:
		err = d.handleMusic(ctx, query, true)
	case voice.IntentPlayAlbum:
		err = d.handleAlbum(ctx, query, false)
	case voice.IntentQueueAlbum:
		err = d.handleAlbum(ctx, query, true)
	case voice.IntentPlaySong:
		err = d.handleTrack(ctx, query, false)
	case voice.IntentQueueSong:
		err = d.handleTrack(ctx, query, true)
	case voice.IntentPlayPlaylist:
		err = d.handlePlaylist(ctx, query)
	case voice.IntentRadio:
		err = d.handleRadio(ctx, query)
	case voice.IntentPlayRandom:
		err = d.handleRandom(ctx)
	default:
		d.logger.Warn("Unknown intent", zap.String("intent", intent.Name))
		d.metrics.RecordIntent(intent.Name, "unknown")
		return
	}

	status := "ok"
	if err != nil {
		status = "failed"
		d.logger.Warn("Intent failed",
			zap.String("intent", intent.Name),
			zap.Error(err))
	}
	d.metrics.RecordIntent(intent.Name, status)
}

func (d *Dispatcher) handlePlayback(ctx context.Context, event *voice.PlaybackEvent) {
	switch event.Type {
	case voice.EventTrackStarted:
		d.scrobbler.OnTrackStarted(ctx, event.Title)
	case voice.EventNextTrack:
		d.queue.OnAdvance()
	case voice.EventPreviousTrack:
		d.queue.OnRetreat()
	}
}

// parseQuery recovers structure from the intent's free-text slot. Explicit
// slots from the host grammar win over anything the parser extracted.
func (d *Dispatcher) parseQuery(intent *voice.Intent) text.Query {
	raw := intent.Slots["query"]
	if raw == "" {
		raw = intent.Utterance
	}

	query := d.parser.ParseQuery(raw)
	if artist := intent.Slots["artist"]; artist != "" {
		query.Artist = artist
	}
	if title := intent.Slots["title"]; title != "" {
		query.Title = title
	}
	return query
}

// handleMusic is the unqualified "play some X" path. X is usually an
// artist, but a spoken album or song keyword reroutes to the matching flow.
func (d *Dispatcher) handleMusic(ctx context.Context, query text.Query, appendMode bool) error {
	switch query.Kind {
	case text.KindAlbum:
		return d.handleAlbum(ctx, query, appendMode)
	case text.KindTrack:
		return d.handleTrack(ctx, query, appendMode)
	case text.KindPlaylist:
		return d.handlePlaylist(ctx, query)
	}

	result, err := d.catalog.Search(ctx, query.Title)
	if err != nil {
		d.speak(ctx, "error.no_match.artist", query.Title)
		return err
	}

	if len(result.Artists) == 0 {
		// No artist by that name; an album or track match still beats
		// telling the user nothing was found.
		if len(result.Albums) > 0 {
			return d.resolveAlbum(ctx, result.Albums, query, appendMode)
		}
		if len(result.Tracks) > 0 {
			return d.resolveTrack(ctx, result.Tracks, query, appendMode)
		}
		d.speak(ctx, "error.no_match.artist", query.Title)
		return ErrNoTracks
	}

	candidates := make([]Candidate, 0, len(result.Artists))
	for _, a := range result.Artists {
		candidates = append(candidates, Candidate{Label: a.Name, Value: a.ID})
	}
	best, _ := d.resolver.BestArtistMatch(query.Title, candidates)

	artistTracks, err := d.collectArtistTracks(ctx, best.Value)
	if err != nil {
		d.speak(ctx, "error.no_match.artist", query.Title)
		return err
	}
	if len(artistTracks) == 0 {
		d.speak(ctx, "error.no_match.artist", query.Title)
		return ErrNoTracks
	}

	if err := d.playOrQueue(ctx, artistTracks, appendMode); err != nil {
		d.speak(ctx, "error.playback")
		return err
	}

	d.speak(ctx, pickKey(appendMode, "speak.playing.artist", "speak.queued.artist"), best.Label)
	return nil
}

func (d *Dispatcher) handleAlbum(ctx context.Context, query text.Query, appendMode bool) error {
	result, err := d.catalog.Search(ctx, query.Title)
	if err != nil {
		d.speak(ctx, "error.no_match", query.Title)
		return err
	}
	return d.resolveAlbum(ctx, result.Albums, query, appendMode)
}

func (d *Dispatcher) resolveAlbum(ctx context.Context, albums []Album, query text.Query, appendMode bool) error {
	if query.Artist != "" {
		albums = FilterByConstraint(d.resolver, albums, query.Artist, func(a Album) string {
			return a.Artist
		})
	}
	if len(albums) == 0 {
		d.speak(ctx, "error.no_match", query.Title)
		return ErrNoTracks
	}

	candidates := make([]Candidate, 0, len(albums))
	for _, a := range albums {
		candidates = append(candidates, Candidate{Label: a.Name, Value: a.ID})
	}
	best, _ := d.resolver.BestMatch(query.Title, candidates)

	var chosen Album
	for _, a := range albums {
		if a.ID == best.Value {
			chosen = a
			break
		}
	}

	albumTracks, err := d.catalog.GetAlbumTracks(ctx, chosen.ID)
	if err != nil {
		d.speak(ctx, "error.no_match", query.Title)
		return err
	}
	if len(albumTracks) == 0 {
		d.speak(ctx, "error.no_match", query.Title)
		return ErrNoTracks
	}

	if err := d.playOrQueue(ctx, albumTracks, appendMode); err != nil {
		d.speak(ctx, "error.playback")
		return err
	}

	d.speak(ctx, pickKey(appendMode, "speak.playing.album", "speak.queued.album"),
		chosen.Name, chosen.Artist)
	return nil
}

func (d *Dispatcher) handleTrack(ctx context.Context, query text.Query, appendMode bool) error {
	result, err := d.catalog.Search(ctx, query.Title)
	if err != nil {
		d.speak(ctx, "error.no_match", query.Title)
		return err
	}
	return d.resolveTrack(ctx, result.Tracks, query, appendMode)
}

func (d *Dispatcher) resolveTrack(ctx context.Context, candidates []Track, query text.Query, appendMode bool) error {
	if query.Artist != "" {
		candidates = FilterByConstraint(d.resolver, candidates, query.Artist, func(t Track) string {
			return t.Artist
		})
	}
	if len(candidates) == 0 {
		d.speak(ctx, "error.no_match", query.Title)
		return ErrNoTracks
	}

	options := make([]Candidate, 0, len(candidates))
	for _, t := range candidates {
		options = append(options, Candidate{Label: t.Title, Value: t.ID})
	}
	best, _ := d.resolver.BestMatch(query.Title, options)

	var chosen Track
	for _, t := range candidates {
		if t.ID == best.Value {
			chosen = t
			break
		}
	}

	if err := d.playOrQueue(ctx, []Track{chosen}, appendMode); err != nil {
		d.speak(ctx, "error.playback")
		return err
	}

	d.speak(ctx, pickKey(appendMode, "speak.playing.track", "speak.queued.track"),
		chosen.Title, chosen.Artist)
	return nil
}

func (d *Dispatcher) handlePlaylist(ctx context.Context, query text.Query) error {
	playlists, err := d.catalog.GetPlaylists(ctx)
	if err != nil {
		d.speak(ctx, "error.no_playlists")
		return err
	}
	if len(playlists) == 0 {
		d.speak(ctx, "error.no_playlists")
		return ErrNoTracks
	}

	if query.Title == "" {
		// The user asked for "a playlist" without naming one; read the
		// choices back instead of guessing.
		names := make([]string, 0, maxSpokenPlaylists)
		for _, p := range playlists {
			if len(names) == maxSpokenPlaylists {
				break
			}
			names = append(names, p.Name)
		}
		d.speak(ctx, "speak.playlists.list", strings.Join(names, ", "))
		return nil
	}

	candidates := make([]Candidate, 0, len(playlists))
	for _, p := range playlists {
		candidates = append(candidates, Candidate{Label: p.Name, Value: p.ID})
	}
	best, _ := d.resolver.BestMatch(query.Title, candidates)

	playlistTracks, err := d.catalog.GetPlaylistTracks(ctx, best.Value)
	if err != nil {
		d.speak(ctx, "error.no_match", query.Title)
		return err
	}
	if len(playlistTracks) == 0 {
		d.speak(ctx, "error.no_match", query.Title)
		return ErrNoTracks
	}

	if err := d.queue.PlayNow(ctx, playlistTracks); err != nil {
		d.speak(ctx, "error.playback")
		return err
	}

	d.speak(ctx, "speak.playing.playlist", best.Label)
	return nil
}

func (d *Dispatcher) handleRadio(ctx context.Context, query text.Query) error {
	result, err := d.catalog.Search(ctx, query.Title)
	if err != nil {
		d.speak(ctx, "error.no_match.radio", query.Title)
		return err
	}
	if len(result.Artists) == 0 {
		d.speak(ctx, "error.no_match.radio", query.Title)
		return ErrNoTracks
	}

	candidates := make([]Candidate, 0, len(result.Artists))
	for _, a := range result.Artists {
		candidates = append(candidates, Candidate{Label: a.Name, Value: a.ID})
	}
	best, _ := d.resolver.BestArtistMatch(query.Title, candidates)

	if err := d.sessions.StartRadio(ctx, best.Value); err != nil {
		d.speak(ctx, "error.no_match.radio", best.Label)
		return err
	}

	d.speak(ctx, "speak.radio.started", best.Label)
	return nil
}

func (d *Dispatcher) handleRandom(ctx context.Context) error {
	if err := d.sessions.StartRandom(ctx); err != nil {
		d.speak(ctx, "error.no_random")
		return err
	}

	d.speak(ctx, "speak.random.started")
	return nil
}

// collectArtistTracks expands an artist into every track on every album.
// Albums that fail to load are skipped; losing one album beats losing the
// whole request.
func (d *Dispatcher) collectArtistTracks(ctx context.Context, artistID string) ([]Track, error) {
	_, albums, err := d.catalog.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	var collected []Track
	for _, album := range albums {
		albumTracks, err := d.catalog.GetAlbumTracks(ctx, album.ID)
		if err != nil {
			d.logger.Warn("Skipping unloadable album",
				zap.String("albumID", album.ID),
				zap.Error(err))
			continue
		}
		collected = append(collected, albumTracks...)
	}
	return collected, nil
}

func (d *Dispatcher) playOrQueue(ctx context.Context, trackList []Track, appendMode bool) error {
	if appendMode {
		return d.queue.Enqueue(ctx, trackList)
	}
	return d.queue.PlayNow(ctx, trackList)
}

func (d *Dispatcher) speak(ctx context.Context, key string, args ...interface{}) {
	utterance := d.localizer.T(key, args...)
	if err := d.frontend.Speak(ctx, utterance); err != nil {
		d.logger.Warn("Failed to speak",
			zap.String("key", key),
			zap.Error(err))
	}
}

func pickKey(appendMode bool, playKey, queueKey string) string {
	if appendMode {
		return queueKey
	}
	return playKey
}
