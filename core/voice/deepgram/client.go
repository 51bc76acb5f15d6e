// Package deepgram implements the voice service contract over Deepgram's
// live transcription websocket, for development without the hosted gateway.
//
// Deepgram only transcribes, it does not conduct the call: there is no
// assistant side, so the client emits user-role transcripts exclusively and
// its speech events mark the caller's own speech. Audio is pushed in with
// SendAudio by whatever captures it.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/voxprep/interview-core/core/events"
	"github.com/voxprep/interview-core/core/voice"
)

const defaultEndpoint = "wss://api.deepgram.com/v1/listen"

const keepAliveInterval = 5 * time.Second

var ErrAlreadyStarted = errors.New("deepgram client already started")

// Client is a transcription-only voice.Client over one Deepgram live
// stream. One client conducts one stream; create a new client for a new
// one.
type Client struct {
	voice.Emitter

	endpoint string
	apiKey   string

	started atomic.Bool

	connMu      sync.Mutex
	conn        *websocket.Conn
	lastAudioTs time.Time

	// unendedSegment tracks whether a speech-start was emitted without its
	// speech-end yet; touched only from the read loop.
	unendedSegment bool
}

var _ voice.Client = (*Client)(nil)

type Option func(*Client)

// WithEndpoint overrides the listen endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithAPIKey sets the Deepgram token. When unset, DEEPGRAM_API_KEY is read
// at Start.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) { c.apiKey = apiKey }
}

func NewClient(opts ...Option) *Client {
	client := &Client{endpoint: defaultEndpoint}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Start opens the live stream and begins translating Deepgram messages into
// events. The config is validated for parity with the gateway client but
// Deepgram has no agent to hand it to, so it is otherwise ignored. May be
// called once per client.
func (c *Client) Start(ctx context.Context, cfg voice.StartConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid start config: %w", err)
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	apiKey := c.apiKey
	if apiKey == "" {
		var ok bool
		if apiKey, ok = os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
			return fmt.Errorf("deepgram api key not found")
		}
	}

	listenURL, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid listen endpoint: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", "linear16")
	queryParams.Set("sample_rate", "16000")
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.lastAudioTs = time.Now()
	c.connMu.Unlock()

	c.Emit(events.NewCallStarted())

	done := make(chan struct{})
	go c.keepAlive(done)
	go c.readAndProcessMessages(conn, done)

	return nil
}

// SendAudio streams one chunk of linear16 16kHz mono audio.
func (c *Client) SendAudio(audio []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("deepgram stream is not open")
	}
	c.lastAudioTs = time.Now()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Stop asks Deepgram to flush and close the stream. Deepgram confirms by
// closing the socket, which the read loop reports as the call ending. Stop
// on a never-started or already-closed client is a no-op.
func (c *Client) Stop() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	if err := c.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

// keepAlive keeps the stream open across capture gaps; Deepgram drops
// connections that go silent for too long.
func (c *Client) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil && time.Since(c.lastAudioTs) >= keepAliveInterval {
				if err := c.conn.WriteJSON(struct {
					Type string `json:"type"`
				}{Type: "KeepAlive"}); err != nil {
					logger.Warn("failed to send deepgram keep-alive", "error", err)
				}
			}
			c.connMu.Unlock()
		}
	}
}

func (c *Client) readAndProcessMessages(conn *websocket.Conn, done chan<- struct{}) {
	defer func() {
		close(done)
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		conn.Close()
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("deepgram stream lost", "error", err)
				c.Emit(events.NewStreamError(fmt.Errorf("deepgram stream lost: %w", err)))
			}
			c.Emit(events.NewCallEnded())
			return
		}
		if msgType != websocket.BinaryMessage {
			c.processMessage(msg)
		}
	}
}

func (c *Client) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram message", "error", err)
			return
		}

		var transcript string
		if len(msgResp.Channel.Alternatives) > 0 {
			transcript = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		}
		if transcript != "" {
			if msgResp.IsFinal {
				c.Emit(events.NewTranscriptFinal(events.RoleUser, transcript))
			} else {
				c.Emit(events.NewTranscriptPartial(events.RoleUser, transcript))
			}
		}
		if msgResp.IsFinal && msgResp.SpeechFinal && c.unendedSegment {
			c.unendedSegment = false
			c.Emit(events.NewSpeechEnded())
		}

	case api.TypeUtteranceEndResponse:
		if c.unendedSegment {
			c.unendedSegment = false
			c.Emit(events.NewSpeechEnded())
		}

	case api.TypeSpeechStartedResponse:
		c.unendedSegment = true
		c.Emit(events.NewSpeechStarted())
	}
}
