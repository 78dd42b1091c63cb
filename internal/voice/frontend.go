// Package voice provides a unified interface to the host voice-assistant
// front end (intent events in, spoken dialog out).
package voice

import (
	"context"
)

// Intent is a resolved voice command delivered by the host's intent parser.
// The grammar matching already happened on the host side; Slots carries the
// named capture groups and Utterance the raw recognized text.
type Intent struct {
	Name      string
	Utterance string
	Slots     map[string]string
}

// Intent names delivered by the host grammar.
const (
	IntentPlayMusic    = "play.music"
	IntentQueueMusic   = "queue.music"
	IntentPlayAlbum    = "play.album"
	IntentQueueAlbum   = "queue.album"
	IntentPlaySong     = "play.song"
	IntentQueueSong    = "queue.song"
	IntentPlayPlaylist = "play.playlist"
	IntentRadio        = "play.radio"
	IntentPlayRandom   = "play.random"
)

// PlaybackEventType identifies a playback-state signal from the host audio
// subsystem.
type PlaybackEventType int

const (
	// EventTrackStarted fires when the audio subsystem begins a track.
	EventTrackStarted PlaybackEventType = iota
	// EventNextTrack fires when playback advanced to the next queue entry.
	EventNextTrack
	// EventPreviousTrack fires when playback returned to the previous entry.
	EventPreviousTrack
)

// PlaybackEvent is a playback-state signal. Title is set only for
// EventTrackStarted and carries whatever name the audio subsystem reports,
// which may be a track the queue has never seen.
type PlaybackEvent struct {
	Type  PlaybackEventType
	Title string
}

// Frontend defines the unified interface to the host assistant.
type Frontend interface {
	// Start connects to the host and blocks delivering events until ctx is
	// cancelled or the connection is lost beyond recovery.
	Start(ctx context.Context) error

	// Stop disconnects from the host.
	Stop(ctx context.Context) error

	// Speak renders a dialog line through the host's text-to-speech.
	Speak(ctx context.Context, utterance string) error

	// SetIntentHandler registers the callback for resolved voice commands.
	SetIntentHandler(handler func(*Intent))

	// SetPlaybackHandler registers the callback for playback-state signals.
	SetPlaybackHandler(handler func(*PlaybackEvent))
}
