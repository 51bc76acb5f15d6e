package callsession

import (
	"context"
	"fmt"

	"github.com/voxprep/interview-core/core/feedback"
)

// Dispatcher is the remote feedback-creation operation invoked when an
// evaluated session reaches its terminal state.
type Dispatcher interface {
	CreateFeedback(ctx context.Context, request feedback.CreateRequest) (feedback.CreateResult, error)
}

type ControllerOption func(*Controller)

// WithDispatcher sets the feedback-creation client used for evaluate-mode
// sessions.
func WithDispatcher(dispatcher Dispatcher) ControllerOption {
	return func(c *Controller) { c.dispatcher = dispatcher }
}

// WithGenerationWorkflow names the remote workflow that drives
// generate-mode calls.
func WithGenerationWorkflow(workflowID string) ControllerOption {
	return func(c *Controller) { c.workflowID = workflowID }
}

// StartRequest carries the already-resolved identity of a call attempt. The
// controller derives nothing: user and interview identifiers are given by
// the caller.
type StartRequest struct {
	Mode        Mode
	UserID      string
	UserName    string
	InterviewID string
	FeedbackID  string
	Questions   []string
}

// Completion reports the terminal action outcome for a session: where the
// caller should take the user next, and the feedback-dispatch error when
// the outcome the user was waiting for did not materialize.
//
// FeedbackID is non-empty whenever an evaluated session completes with the
// feedback route: the service's returned id, or the id the session asked to
// overwrite when the response carries none. An accepted submission that
// resolves to no id at all is reported as a failed dispatch.
type Completion struct {
	Mode       Mode
	Route      string
	FeedbackID string
	Err        error
}

// RouteHome is the session-start surface, used after generate-mode calls
// and as the safe fallback when feedback dispatch fails.
const RouteHome = "/"

// FeedbackRoute is the feedback-result surface for an interview.
func FeedbackRoute(interviewID string) string {
	return fmt.Sprintf("/interview/%s/feedback", interviewID)
}

type startOptions struct {
	onStatus     func(Status)
	onSpeaking   func(bool)
	onMessage    func(Message)
	onError      func(error)
	onNotify     func(string)
	onCompletion func(Completion)
}

type StartOption func(*startOptions)

// WithStatusCallback reports every applied status transition.
func WithStatusCallback(callback func(Status)) StartOption {
	return func(o *startOptions) { o.onStatus = callback }
}

// WithSpeakingCallback reports assistant speech activity for UI indicators.
// The flag carries no correctness obligation.
func WithSpeakingCallback(callback func(bool)) StartOption {
	return func(o *startOptions) { o.onSpeaking = callback }
}

// WithMessageCallback reports each finalized utterance as it is appended to
// the transcript.
func WithMessageCallback(callback func(Message)) StartOption {
	return func(o *startOptions) { o.onMessage = callback }
}

// WithErrorCallback reports stream errors. They are non-fatal and do not
// change the session status.
func WithErrorCallback(callback func(error)) StartOption {
	return func(o *startOptions) { o.onError = callback }
}

// WithNotifyCallback reports user-visible failure notifications.
func WithNotifyCallback(callback func(string)) StartOption {
	return func(o *startOptions) { o.onNotify = callback }
}

// WithCompletionCallback reports the terminal action outcome. It fires at
// most once per session.
func WithCompletionCallback(callback func(Completion)) StartOption {
	return func(o *startOptions) { o.onCompletion = callback }
}
