// Package gateway implements the voice service contract over the hosted
// voice gateway's websocket API.
//
// The gateway owns the call itself (speech recognition, turn taking,
// synthesis); this client only issues the start/stop requests and
// translates inbound JSON frames into typed events.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/voxprep/interview-core/core/events"
	"github.com/voxprep/interview-core/core/voice"
)

const defaultEndpoint = "wss://gateway.voxprep.dev/v1/call"

var ErrAlreadyStarted = errors.New("gateway client already started")

// Client is a voice.Client backed by one websocket connection to the voice
// gateway. One client conducts one call; create a new client for a new
// call.
type Client struct {
	voice.Emitter

	endpoint string
	apiKey   string

	started atomic.Bool

	connMu sync.Mutex
	conn   *websocket.Conn
}

var _ voice.Client = (*Client)(nil)

type Option func(*Client)

// WithEndpoint overrides the gateway websocket endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithAPIKey sets the gateway token. When unset, VOICE_GATEWAY_API_KEY is
// read at Start.
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

// startFrame is the first frame on the wire: it names what drives the call
// and the variables substituted into its prompt templates.
type startFrame struct {
	Type           string            `json:"type"`
	WorkflowID     string            `json:"workflowId,omitempty"`
	Assistant      *voice.Assistant  `json:"assistant,omitempty"`
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

// serverFrame is any inbound frame; fields beyond Type are populated
// depending on it.
type serverFrame struct {
	Type           string      `json:"type"`
	TranscriptType string      `json:"transcriptType,omitempty"`
	Role           events.Role `json:"role,omitempty"`
	Transcript     string      `json:"transcript,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// Start opens the websocket, issues the start request, and begins
// translating inbound frames into events. It may be called once per
// client.
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
		if apiKey, ok = os.LookupEnv("VOICE_GATEWAY_API_KEY"); !ok {
			return fmt.Errorf("voice gateway api key not found")
		}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint,
		http.Header{"Authorization": {"Bearer " + apiKey}})
	if err != nil {
		return fmt.Errorf("failed to open socket connection to voice gateway: %w", err)
	}

	if err := conn.WriteJSON(startFrame{
		Type:           "start",
		WorkflowID:     cfg.WorkflowID,
		Assistant:      cfg.Assistant,
		VariableValues: cfg.Variables,
	}); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send start request: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.readAndProcessMessages(conn)

	return nil
}

// Stop asks the gateway to terminate the call. The gateway confirms with a
// call-end frame before closing the stream. Stop on a never-started or
// already-closed client is a no-op.
func (c *Client) Stop() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	if err := c.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "stop"}); err != nil {
		return fmt.Errorf("failed to send stop request: %w", err)
	}
	return nil
}

func (c *Client) readAndProcessMessages(conn *websocket.Conn) {
	defer func() {
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("voice gateway stream lost", "error", err)
				c.Emit(events.NewStreamError(fmt.Errorf("gateway stream lost: %w", err)))
			}
			// The stream is gone either way; treat it as the remote hang-up.
			// Consumers handle duplicate call-end idempotently.
			c.Emit(events.NewCallEnded())
			return
		}
		c.processMessage(msg)
	}
}

func (c *Client) processMessage(msg []byte) {
	var frame serverFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		logger.Warn("failed to unmarshal gateway frame", "error", err)
		return
	}

	switch frame.Type {
	case "call-start":
		c.Emit(events.NewCallStarted())
	case "call-end":
		c.Emit(events.NewCallEnded())
	case "speech-start":
		c.Emit(events.NewSpeechStarted())
	case "speech-end":
		c.Emit(events.NewSpeechEnded())
	case "transcript":
		switch frame.TranscriptType {
		case "final":
			c.Emit(events.NewTranscriptFinal(frame.Role, frame.Transcript))
		case "partial":
			c.Emit(events.NewTranscriptPartial(frame.Role, frame.Transcript))
		default:
			logger.Warn("unknown transcript type", "transcript_type", frame.TranscriptType)
		}
	case "error":
		c.Emit(events.NewStreamError(errors.New(frame.Error)))
	default:
		logger.Warn("unknown gateway frame", "frame_type", frame.Type)
	}
}
