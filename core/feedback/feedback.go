// Package feedback carries the feedback domain model and the client for the
// remote feedback-creation operation invoked when an evaluated interview
// call ends.
package feedback

import "time"

// CategoryScore is one scored dimension of an interview.
type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Feedback is the stored evaluation for one interview taken by one user.
type Feedback struct {
	ID                  string          `json:"id"`
	InterviewID         string          `json:"interviewId"`
	UserID              string          `json:"userId"`
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// Turn is one finalized utterance of the call transcript as submitted for
// evaluation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateRequest is the payload of the remote feedback-creation operation.
// FeedbackID is set when re-taking an interview so the existing document is
// overwritten instead of duplicated.
type CreateRequest struct {
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	FeedbackID  string `json:"feedbackId,omitempty"`
	Transcript  []Turn `json:"transcript"`
}

// CreateResult reports the outcome of a feedback-creation request.
type CreateResult struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}
