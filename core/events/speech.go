package events

const (
	// KindSpeechStarted identifies start of assistant speech activity.
	KindSpeechStarted Kind = "speech.started"
	// KindSpeechEnded identifies end of assistant speech activity.
	KindSpeechEnded Kind = "speech.ended"
)

// SpeechStarted marks when speech activity starts.
type SpeechStarted struct{ Base }

func (e SpeechStarted) String() string { return "Speech Started" }

// NewSpeechStarted creates a speech started event.
func NewSpeechStarted() SpeechStarted {
	return SpeechStarted{Base: NewBase(KindSpeechStarted)}
}

// SpeechEnded marks when speech activity ends.
type SpeechEnded struct{ Base }

func (e SpeechEnded) String() string { return "Speech Ended" }

// NewSpeechEnded creates a speech ended event.
func NewSpeechEnded() SpeechEnded {
	return SpeechEnded{Base: NewBase(KindSpeechEnded)}
}
