package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/voxprep/interview-core/core/events"
	"github.com/voxprep/interview-core/core/voice"
)

var upgrader = websocket.Upgrader{}

// scriptedListen upgrades one connection, plays the scripted messages, and
// records audio chunks and the close-stream request.
type scriptedListen struct {
	messages  []string
	audioSeen chan []byte
	closeSeen chan struct{}
}

func newScriptedListen(messages ...string) *scriptedListen {
	return &scriptedListen{
		messages:  messages,
		audioSeen: make(chan []byte, 8),
		closeSeen: make(chan struct{}, 1),
	}
}

func (l *scriptedListen) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.URL.Query().Get("encoding"); got != "linear16" {
			t.Errorf("unexpected encoding %q", got)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		for _, message := range l.messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				return
			}
		}

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage {
				l.audioSeen <- msg
				continue
			}
			var parsed map[string]any
			if err := json.Unmarshal(msg, &parsed); err == nil && parsed["type"] == "CloseStream" {
				l.closeSeen <- struct{}{}
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return
			}
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func collectEvents(client voice.Client, kinds ...events.Kind) <-chan events.Event {
	received := make(chan events.Event, 32)
	for _, kind := range kinds {
		client.On(kind, func(event events.Event) { received <- event })
	}
	return received
}

func awaitEvent(t *testing.T, received <-chan events.Event) events.Event {
	t.Helper()
	select {
	case event := <-received:
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func TestTranscriptsBecomeUserEvents(t *testing.T) {
	listen := newScriptedListen(
		`{"type":"SpeechStarted"}`,
		`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"tell me"}]}}`,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"Tell me about yourself."}]}}`,
	)
	server := httptest.NewServer(listen.handler(t))
	defer server.Close()

	client := NewClient(WithEndpoint(wsURL(server)), WithAPIKey("test-key"))
	received := collectEvents(client,
		events.KindCallStarted,
		events.KindSpeechStarted,
		events.KindTranscriptPartial,
		events.KindTranscriptFinal,
		events.KindSpeechEnded,
	)

	if err := client.Start(context.Background(), voice.StartConfig{WorkflowID: "workflow-1"}); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	if got := awaitEvent(t, received).Kind(); got != events.KindCallStarted {
		t.Fatalf("expected call started first, got %s", got)
	}
	if got := awaitEvent(t, received).Kind(); got != events.KindSpeechStarted {
		t.Fatalf("expected speech started, got %s", got)
	}

	partial, ok := awaitEvent(t, received).(events.TranscriptPartial)
	if !ok || partial.Transcript != "tell me" || partial.Role != events.RoleUser {
		t.Fatalf("expected user partial transcript, got %+v", partial)
	}
	final, ok := awaitEvent(t, received).(events.TranscriptFinal)
	if !ok || final.Transcript != "Tell me about yourself." || final.Role != events.RoleUser {
		t.Fatalf("expected user final transcript, got %+v", final)
	}
	if got := awaitEvent(t, received).Kind(); got != events.KindSpeechEnded {
		t.Fatalf("expected speech ended, got %s", got)
	}
}

func TestUtteranceEndClosesOpenSegment(t *testing.T) {
	listen := newScriptedListen(
		`{"type":"SpeechStarted"}`,
		`{"type":"UtteranceEnd"}`,
		`{"type":"UtteranceEnd"}`,
	)
	server := httptest.NewServer(listen.handler(t))
	defer server.Close()

	client := NewClient(WithEndpoint(wsURL(server)), WithAPIKey("test-key"))
	received := collectEvents(client, events.KindSpeechStarted, events.KindSpeechEnded)

	if err := client.Start(context.Background(), voice.StartConfig{WorkflowID: "workflow-1"}); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	if got := awaitEvent(t, received).Kind(); got != events.KindSpeechStarted {
		t.Fatalf("expected speech started, got %s", got)
	}
	if got := awaitEvent(t, received).Kind(); got != events.KindSpeechEnded {
		t.Fatalf("expected speech ended, got %s", got)
	}

	select {
	case event := <-received:
		t.Fatalf("expected no second speech end, got %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopFlushesStreamAndCallEndArrives(t *testing.T) {
	listen := newScriptedListen()
	server := httptest.NewServer(listen.handler(t))
	defer server.Close()

	client := NewClient(WithEndpoint(wsURL(server)), WithAPIKey("test-key"))
	received := collectEvents(client, events.KindCallStarted, events.KindCallEnded)

	if err := client.Start(context.Background(), voice.StartConfig{WorkflowID: "workflow-1"}); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if got := awaitEvent(t, received).Kind(); got != events.KindCallStarted {
		t.Fatalf("expected call started, got %s", got)
	}

	if err := client.SendAudio([]byte{0, 0, 0, 0}); err != nil {
		t.Fatalf("expected audio write to succeed, got %v", err)
	}
	select {
	case <-listen.audioSeen:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for audio chunk")
	}

	if err := client.Stop(); err != nil {
		t.Fatalf("expected stop to succeed, got %v", err)
	}
	select {
	case <-listen.closeSeen:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for close-stream request")
	}
	if got := awaitEvent(t, received).Kind(); got != events.KindCallEnded {
		t.Fatalf("expected call ended after stop, got %s", got)
	}
}

func TestSendAudioRequiresOpenStream(t *testing.T) {
	client := NewClient(WithAPIKey("test-key"))

	if err := client.SendAudio([]byte{0, 0}); err == nil {
		t.Fatalf("expected audio write before start to fail")
	}
}

func TestStartTwiceIsRejected(t *testing.T) {
	listen := newScriptedListen()
	server := httptest.NewServer(listen.handler(t))
	defer server.Close()

	client := NewClient(WithEndpoint(wsURL(server)), WithAPIKey("test-key"))
	if err := client.Start(context.Background(), voice.StartConfig{WorkflowID: "workflow-1"}); err != nil {
		t.Fatalf("expected first start to succeed, got %v", err)
	}

	if err := client.Start(context.Background(), voice.StartConfig{WorkflowID: "workflow-1"}); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}
