package events

const (
	// KindCallStarted identifies the remote service accepting the call.
	KindCallStarted Kind = "call.started"
	// KindCallEnded identifies call termination, local or remote.
	KindCallEnded Kind = "call.ended"
)

// CallStarted marks the call going live on the remote service.
type CallStarted struct{ Base }

func (e CallStarted) String() string { return "Call Started" }

// NewCallStarted creates a call started event.
func NewCallStarted() CallStarted {
	return CallStarted{Base: NewBase(KindCallStarted)}
}

// CallEnded marks call termination. It may arrive after the session has
// already been closed locally; consumers must treat it as idempotent.
type CallEnded struct{ Base }

func (e CallEnded) String() string { return "Call Ended" }

// NewCallEnded creates a call ended event.
func NewCallEnded() CallEnded {
	return CallEnded{Base: NewBase(KindCallEnded)}
}
