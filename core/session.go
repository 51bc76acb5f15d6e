package callsession

import (
	"github.com/google/uuid"
	"github.com/voxprep/interview-core/core/events"
)

// Mode fixes a session's terminal behavior at creation time.
type Mode string

const (
	// ModeGenerate is a practice-question creation call; no feedback is
	// produced when it ends.
	ModeGenerate Mode = "generate"
	// ModeEvaluate is a scored interview call; the transcript is submitted
	// for feedback exactly once when it ends.
	ModeEvaluate Mode = "evaluate"
)

// Message is one finalized utterance of the call. Messages are immutable
// once appended to a session's transcript.
type Message struct {
	Role    events.Role `json:"role"`
	Content string      `json:"content"`
}

// session is the aggregate the controller owns for one call attempt. All
// fields are guarded by the controller's mutex.
type session struct {
	id          string
	mode        Mode
	userID      string
	userName    string
	interviewID string
	feedbackID  string

	status     Status
	transcript transcript
	speaking   bool

	// terminalHandled gates the one-shot terminal action. It is
	// checked-and-set in the same critical section as the transition to
	// StatusDisconnected, so duplicate delivery of the terminal edge (a
	// local stop followed by the service's own call-end) runs the terminal
	// action once.
	terminalHandled bool
}

func newSession(req StartRequest) *session {
	return &session{
		id:          uuid.NewString(),
		mode:        req.Mode,
		userID:      req.UserID,
		userName:    req.UserName,
		interviewID: req.InterviewID,
		feedbackID:  req.FeedbackID,
		status:      StatusInactive,
	}
}
