// Package bus connects to the voice assistant's websocket message bus. The
// assistant owns speech recognition, intent matching and audio output; this
// process only exchanges typed JSON messages with it.
package bus

import (
	"encoding/json"
	"fmt"
)

// Message is the envelope every bus frame uses. Data holds the type-specific
// payload and stays raw until the type is known.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound message types.
const (
	TypeIntent        = "subvox.intent"
	TypeTrackStarted  = "audio.track_started"
	TypeNextTrack     = "audio.next"
	TypePreviousTrack = "audio.previous"
)

// Outbound message types.
const (
	TypeSpeak           = "speak"
	TypePlaylistPlay    = "audio.playlist.play"
	TypePlaylistEnqueue = "audio.playlist.enqueue"
)

// IntentPayload carries a resolved voice command from the assistant's
// intent parser.
type IntentPayload struct {
	Name      string            `json:"name"`
	Utterance string            `json:"utterance"`
	Slots     map[string]string `json:"slots,omitempty"`
}

// TrackStartedPayload announces that the audio subsystem began a track.
type TrackStartedPayload struct {
	Title string `json:"title"`
}

// SpeakPayload asks the assistant to render an utterance through
// text-to-speech.
type SpeakPayload struct {
	Utterance string `json:"utterance"`
}

// PlaylistPayload carries stream URLs for the audio subsystem's queue.
type PlaylistPayload struct {
	Tracks []string `json:"tracks"`
}

// Encode wraps a payload in the bus envelope.
func Encode(msgType string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
		}
		data = raw
	}
	return json.Marshal(Message{Type: msgType, Data: data})
}

func decodePayload(msg *Message, dest interface{}) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("message %s carries no payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", msg.Type, err)
	}
	return nil
}
