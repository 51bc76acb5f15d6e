// Package store names the document-store contracts the dashboard and
// feedback surfaces depend on. Implementations live in subpackages; the
// identity service carries its own Users contract and postgres satisfies
// both.
package store

import (
	"context"
	"io"

	"github.com/voxprep/interview-core/core/feedback"
	"github.com/voxprep/interview-core/core/interviews"
)

// Interviews stores prepared interviews. Unknown ids surface as the
// implementation's not-found error.
type Interviews interface {
	Create(ctx context.Context, interview interviews.Interview) (string, error)
	Get(ctx context.Context, id string) (interviews.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]interviews.Interview, error)
	ListLatest(ctx context.Context, excludeUserID string, limit int) ([]interviews.Interview, error)
}

// Feedback stores feedback documents, one per (interview, user) pair.
type Feedback interface {
	Upsert(ctx context.Context, doc feedback.Feedback) (string, error)
	GetByInterview(ctx context.Context, interviewID, userID string) (feedback.Feedback, error)
}

// Images uploads user-provided images (profile avatars) to the hosted media
// service and returns the public URL stored on the account record.
type Images interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}
