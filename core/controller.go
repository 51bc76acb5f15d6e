// Package callsession orchestrates one simulated-interview voice call: it
// owns the call lifecycle state machine, aggregates finalized transcript
// events in arrival order, and guarantees a single, correctly-sequenced
// transition from "call ended" to "feedback requested".
package callsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/voxprep/interview-core/core/events"
	"github.com/voxprep/interview-core/core/feedback"
	"github.com/voxprep/interview-core/core/voice"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrSessionActive is returned when Start is called while a session is
	// already connecting or active. Starting twice must not create a
	// duplicate session.
	ErrSessionActive = errors.New("a session is already connecting or active")
	// ErrSessionFinalizing is returned when Start is called while the
	// previous session's terminal action is still running.
	ErrSessionFinalizing = errors.New("previous session is still finalizing")
	// ErrDispatchFailed is the completion error when the feedback service
	// accepted the request but declined the submission.
	ErrDispatchFailed = errors.New("feedback service declined the submission")
	// ErrNoDispatcher is the completion error when an evaluate-mode session
	// ends on a controller with no feedback dispatcher configured.
	ErrNoDispatcher = errors.New("no feedback dispatcher configured")
)

// Controller is the single authoritative owner of the session for one call
// attempt. It subscribes to the voice client's events, drives the status
// state machine and transcript, and decides the terminal action when the
// session ends.
//
// All session state is guarded by one mutex; status transitions and the
// one-shot terminal gate are checked-and-set in the same critical section,
// so duplicate delivery of the terminal edge (a local Stop followed by the
// service's own call-end) runs the terminal action once. Callbacks are
// invoked outside the lock.
type Controller struct {
	client     voice.Client
	dispatcher Dispatcher
	workflowID string

	mu          sync.Mutex
	session     *session
	opts        startOptions
	offs        []func()
	finalizing  bool
	baseContext context.Context
}

// NewController creates a controller around a voice client. One controller
// conducts one session at a time; a new Start is accepted only once the
// previous session's terminal action has finished.
func NewController(client voice.Client, opts ...ControllerOption) *Controller {
	c := &Controller{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start creates a new session and issues the remote start request.
// Generate-mode calls run the configured remote workflow with the caller's
// identity variables; evaluate-mode calls run the fixed interviewer script
// parameterized with the prepared questions.
//
// ctx outlives Start: it is the base context for the terminal feedback
// dispatch when the session ends.
func (c *Controller) Start(ctx context.Context, req StartRequest, opts ...StartOption) error {
	ctx, span := tracer.Start(ctx, "start call session")
	defer span.End()
	span.SetAttributes(attribute.String("session.mode", string(req.Mode)))

	options := startOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	c.mu.Lock()
	if sess := c.session; sess != nil &&
		(sess.status == StatusConnecting || sess.status == StatusActive) {
		c.mu.Unlock()
		span.SetStatus(codes.Error, ErrSessionActive.Error())
		return ErrSessionActive
	}
	if c.finalizing {
		c.mu.Unlock()
		span.SetStatus(codes.Error, ErrSessionFinalizing.Error())
		return ErrSessionFinalizing
	}

	sess := newSession(req)
	sess.status = StatusConnecting
	c.session = sess
	c.opts = options
	c.baseContext = context.WithoutCancel(ctx)
	c.subscribeLocked()
	onStatus := options.onStatus
	c.mu.Unlock()

	if onStatus != nil {
		onStatus(StatusConnecting)
	}

	cfg := c.startConfig(req)
	if err := c.client.Start(ctx, cfg); err != nil {
		// The call never went live; tear the session down without running
		// the terminal action.
		c.mu.Lock()
		if c.session == sess {
			sess.status = StatusDisconnected
			sess.terminalHandled = true
			c.unsubscribeLocked()
		}
		c.mu.Unlock()

		err = fmt.Errorf("failed to start voice session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Controller) startConfig(req StartRequest) voice.StartConfig {
	if req.Mode == ModeGenerate {
		return voice.StartConfig{
			WorkflowID: c.workflowID,
			Variables: map[string]string{
				"username": req.UserName,
				"userid":   req.UserID,
			},
		}
	}
	return voice.Interviewer(req.Questions)
}

// Stop terminates the current session: the local transition to
// DISCONNECTED is applied immediately and the remote stream is asked to
// stop before the terminal action runs, so the stream never outlives the
// session while feedback is being dispatched. Calling Stop again after the
// session has disconnected has no effect and signals nothing.
func (c *Controller) Stop() {
	terminal, applied := c.disconnect()
	if !applied {
		return
	}
	if err := c.client.Stop(); err != nil {
		logger.Warn("failed to stop voice stream", "error", err)
	}
	if terminal != nil {
		terminal()
	}
}

// Status returns the current session status, StatusInactive when no call
// has been started.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return StatusInactive
	}
	return c.session.status
}

// Speaking reports assistant speech activity.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.speaking
}

// Transcript returns a stable copy of the finalized utterances appended so
// far, in arrival order.
func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.transcript.snapshot()
}

// SessionID identifies the current session, empty when none was started.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.id
}

func (c *Controller) subscribeLocked() {
	c.offs = []func(){
		c.client.On(events.KindCallStarted, func(events.Event) { c.handleCallStarted() }),
		c.client.On(events.KindCallEnded, func(events.Event) {
			if terminal, _ := c.disconnect(); terminal != nil {
				terminal()
			}
		}),
		c.client.On(events.KindSpeechStarted, func(events.Event) { c.setSpeaking(true) }),
		c.client.On(events.KindSpeechEnded, func(events.Event) { c.setSpeaking(false) }),
		c.client.On(events.KindTranscriptFinal, func(event events.Event) {
			if transcript, ok := event.(events.TranscriptFinal); ok {
				c.appendMessage(Message{Role: transcript.Role, Content: transcript.Transcript})
			}
		}),
		c.client.On(events.KindStreamError, func(event events.Event) { c.handleStreamError(event) }),
	}
}

func (c *Controller) unsubscribeLocked() {
	for _, off := range c.offs {
		off()
	}
	c.offs = nil
}

func (c *Controller) handleCallStarted() {
	c.mu.Lock()
	sess := c.session
	if sess == nil || !sess.status.canTransition(StatusActive) {
		// Late or duplicate call-start; a closed session is not resurrected.
		c.mu.Unlock()
		return
	}
	sess.status = StatusActive
	onStatus := c.opts.onStatus
	c.mu.Unlock()

	if onStatus != nil {
		onStatus(StatusActive)
	}
}

func (c *Controller) setSpeaking(speaking bool) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.status == StatusDisconnected {
		c.mu.Unlock()
		return
	}
	sess.speaking = speaking
	onSpeaking := c.opts.onSpeaking
	c.mu.Unlock()

	if onSpeaking != nil {
		onSpeaking(speaking)
	}
}

func (c *Controller) appendMessage(message Message) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.status == StatusDisconnected {
		c.mu.Unlock()
		return
	}
	sess.transcript.append(message)
	onMessage := c.opts.onMessage
	c.mu.Unlock()

	if onMessage != nil {
		onMessage(message)
	}
}

func (c *Controller) handleStreamError(event events.Event) {
	streamError, ok := event.(events.StreamError)
	if !ok {
		return
	}

	// Stream faults do not force a status transition; the service is
	// expected to follow a fatal fault with call-end. Until then the
	// session stays active and only the user's Stop ends it.
	logger.Warn("voice stream error", "error", streamError.Err)

	c.mu.Lock()
	onError := c.opts.onError
	c.mu.Unlock()
	if onError != nil && streamError.Err != nil {
		onError(streamError.Err)
	}
}

// disconnect applies the terminal transition. When this call is the one
// that performed it and won the one-shot gate, the returned func runs the
// terminal action and must be invoked by the caller; splitting the two lets
// Stop issue the remote stop request between them. Reports whether the
// transition happened.
func (c *Controller) disconnect() (terminal func(), applied bool) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || !sess.status.canTransition(StatusDisconnected) {
		c.mu.Unlock()
		return nil, false
	}
	sess.status = StatusDisconnected

	runTerminal := !sess.terminalHandled
	sess.terminalHandled = true
	if runTerminal {
		c.finalizing = true
	}

	onStatus := c.opts.onStatus
	ctx := c.baseContext
	snapshot := sess.transcript.snapshot()
	c.unsubscribeLocked()
	c.mu.Unlock()

	if onStatus != nil {
		onStatus(StatusDisconnected)
	}
	if !runTerminal {
		return nil, true
	}
	return func() { c.runTerminal(ctx, sess, snapshot) }, true
}

// runTerminal executes the mode-specific terminal action: generate-mode
// sessions route back to the session-start surface, evaluate-mode sessions
// submit the transcript snapshot for feedback exactly once.
func (c *Controller) runTerminal(ctx context.Context, sess *session, messages []Message) {
	ctx, span := tracer.Start(ctx, "finalize call session")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.mode", string(sess.mode)),
		attribute.Int("session.transcript_messages", len(messages)),
	)

	defer func() {
		c.mu.Lock()
		c.finalizing = false
		c.mu.Unlock()
	}()

	c.mu.Lock()
	options := c.opts
	c.mu.Unlock()

	if sess.mode == ModeGenerate {
		if options.onCompletion != nil {
			options.onCompletion(Completion{Mode: sess.mode, Route: RouteHome})
		}
		return
	}

	result, err := c.dispatchFeedback(ctx, sess, messages)
	if err == nil && !result.Success {
		err = ErrDispatchFailed
	}

	feedbackID := result.FeedbackID
	if feedbackID == "" {
		feedbackID = sess.feedbackID
	}
	if err == nil && feedbackID == "" {
		// Accepted but unidentifiable; the feedback surface has no document
		// to show, so this counts as a failed dispatch.
		err = ErrDispatchFailed
	}

	if err != nil {
		err = fmt.Errorf("dispatching feedback for interview %s: %w", sess.interviewID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if options.onNotify != nil {
			options.onNotify("Failed to create feedback.")
		}
		if options.onCompletion != nil {
			options.onCompletion(Completion{Mode: sess.mode, Route: RouteHome, Err: err})
		}
		return
	}

	if options.onCompletion != nil {
		options.onCompletion(Completion{
			Mode:       sess.mode,
			Route:      FeedbackRoute(sess.interviewID),
			FeedbackID: feedbackID,
		})
	}
}

func (c *Controller) dispatchFeedback(ctx context.Context, sess *session, messages []Message) (feedback.CreateResult, error) {
	if c.dispatcher == nil {
		return feedback.CreateResult{}, ErrNoDispatcher
	}

	turns := make([]feedback.Turn, 0, len(messages))
	for _, message := range messages {
		turns = append(turns, feedback.Turn{Role: string(message.Role), Content: message.Content})
	}

	return c.dispatcher.CreateFeedback(ctx, feedback.CreateRequest{
		InterviewID: sess.interviewID,
		UserID:      sess.userID,
		FeedbackID:  sess.feedbackID,
		Transcript:  turns,
	})
}
