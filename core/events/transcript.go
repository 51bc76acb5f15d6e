package events

// Role identifies which side of the conversation produced an utterance.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// KindTranscriptPartial identifies interim transcripts the service may
	// still revise.
	KindTranscriptPartial Kind = "transcript.partial"
	// KindTranscriptFinal identifies committed transcripts that will not
	// change.
	KindTranscriptFinal Kind = "transcript.final"
)

// TranscriptPartial carries an interim transcript snapshot.
type TranscriptPartial struct {
	Base
	Role       Role
	Transcript string
}

func (e TranscriptPartial) String() string { return e.Transcript + "..." }

// NewTranscriptPartial creates an interim transcript event.
func NewTranscriptPartial(role Role, transcript string) TranscriptPartial {
	return TranscriptPartial{Base: NewBase(KindTranscriptPartial), Role: role, Transcript: transcript}
}

// TranscriptFinal carries a finalized utterance.
type TranscriptFinal struct {
	Base
	Role       Role
	Transcript string
}

func (e TranscriptFinal) String() string { return e.Transcript }

// NewTranscriptFinal creates a finalized transcript event.
func NewTranscriptFinal(role Role, transcript string) TranscriptFinal {
	return TranscriptFinal{Base: NewBase(KindTranscriptFinal), Role: role, Transcript: transcript}
}
