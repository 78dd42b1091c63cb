package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"subvox/internal/core"
	"subvox/internal/voice"
)

// Client is the websocket connection to the assistant's message bus. It
// implements both the voice front end (intents in, speech out) and the
// player (queue commands out), since both travel over the same socket.
type Client struct {
	config *core.BusConfig
	logger *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	intentHandler   func(*voice.Intent)
	playbackHandler func(*voice.PlaybackEvent)
}

func NewClient(config *core.BusConfig, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
	}
}

// SetIntentHandler registers the callback for resolved voice commands.
func (c *Client) SetIntentHandler(handler func(*voice.Intent)) {
	c.intentHandler = handler
}

// SetPlaybackHandler registers the callback for playback-state signals.
func (c *Client) SetPlaybackHandler(handler func(*voice.PlaybackEvent)) {
	c.playbackHandler = handler
}

// Start connects to the bus and delivers messages until ctx is cancelled.
// Lost connections are redialed with growing delays; the assistant restarting
// must not take this process down with it.
func (c *Client) Start(ctx context.Context) error {
	c.logger.Info("Connecting to message bus", zap.String("url", c.config.URL))

	delay := time.Duration(c.config.ReconnectDelaySecs) * time.Second
	maxDelay := time.Duration(c.config.MaxReconnectDelaySecs) * time.Second

	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.config.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("Bus dial failed, retrying",
				zap.Duration("delay", delay),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = minDelay(delay*2, maxDelay)
			continue
		}

		c.setConn(conn)
		c.logger.Info("Message bus connected")
		delay = time.Duration(c.config.ReconnectDelaySecs) * time.Second

		err = c.readLoop(ctx, conn)
		c.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("Message bus connection lost", zap.Error(err))
	}
}

// Stop closes the connection, which also unblocks a running read loop.
func (c *Client) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Connected reports whether the bus socket is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Speak asks the assistant to say the utterance.
func (c *Client) Speak(_ context.Context, utterance string) error {
	return c.send(TypeSpeak, SpeakPayload{Utterance: utterance})
}

// ReplaceQueue replaces the audio subsystem's queue with the given stream
// URLs and starts playback from the first entry.
func (c *Client) ReplaceQueue(_ context.Context, urls []string) error {
	return c.send(TypePlaylistPlay, PlaylistPayload{Tracks: urls})
}

// AppendQueue appends the given stream URLs after the current queue.
func (c *Client) AppendQueue(_ context.Context, urls []string) error {
	return c.send(TypePlaylistEnqueue, PlaylistPayload{Tracks: urls})
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleRaw(raw)
	}
}

// handleRaw dispatches one bus frame. Malformed frames are logged and
// dropped; one bad producer must not kill the connection.
func (c *Client) handleRaw(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Warn("Dropping malformed bus frame", zap.Error(err))
		return
	}

	switch msg.Type {
	case TypeIntent:
		var payload IntentPayload
		if err := decodePayload(&msg, &payload); err != nil {
			c.logger.Warn("Dropping bad intent frame", zap.Error(err))
			return
		}
		if c.intentHandler != nil {
			c.intentHandler(&voice.Intent{
				Name:      payload.Name,
				Utterance: payload.Utterance,
				Slots:     payload.Slots,
			})
		}

	case TypeTrackStarted:
		var payload TrackStartedPayload
		if err := decodePayload(&msg, &payload); err != nil {
			c.logger.Warn("Dropping bad track-started frame", zap.Error(err))
			return
		}
		c.deliverPlayback(&voice.PlaybackEvent{
			Type:  voice.EventTrackStarted,
			Title: payload.Title,
		})

	case TypeNextTrack:
		c.deliverPlayback(&voice.PlaybackEvent{Type: voice.EventNextTrack})

	case TypePreviousTrack:
		c.deliverPlayback(&voice.PlaybackEvent{Type: voice.EventPreviousTrack})

	default:
		c.logger.Debug("Ignoring bus frame", zap.String("type", msg.Type))
	}
}

func (c *Client) deliverPlayback(event *voice.PlaybackEvent) {
	if c.playbackHandler != nil {
		c.playbackHandler(event)
	}
}

func (c *Client) send(msgType string, payload interface{}) error {
	data, err := Encode(msgType, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("message bus not connected")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}
	return nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func minDelay(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
