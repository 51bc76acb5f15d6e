// Package interviews holds the interview document model read by the
// dashboard surfaces and passed, already resolved, into call sessions.
package interviews

import (
	"regexp"
	"time"
)

// Interview is one prepared interview: the questions an evaluate-mode call
// asks, plus the metadata the listing surfaces render.
type Interview struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Role       string    `json:"role"`
	Type       string    `json:"type"`
	Level      string    `json:"level"`
	Techstack  []string  `json:"techstack"`
	Questions  []string  `json:"questions"`
	Finalized  bool      `json:"finalized"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

var mixedType = regexp.MustCompile(`(?i)mix`)

// NormalizedType collapses the free-form type field ("mix", "Mixed",
// "mixed technical/behavioural") into the display label "Mixed"; any other
// value is returned as is.
func (i Interview) NormalizedType() string {
	if mixedType.MatchString(i.Type) {
		return "Mixed"
	}
	return i.Type
}
