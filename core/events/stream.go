package events

// KindStreamError identifies a transport or service fault on the stream.
const KindStreamError Kind = "stream.error"

// StreamError carries a fault reported by the voice service. It does not by
// itself terminate the call; fatal faults are expected to be followed by a
// CallEnded event from the service.
type StreamError struct {
	Base
	Err error
}

func (e StreamError) String() string {
	if e.Err == nil {
		return "Stream Error"
	}
	return "Stream Error: " + e.Err.Error()
}

// NewStreamError creates a stream error event.
func NewStreamError(err error) StreamError {
	return StreamError{Base: NewBase(KindStreamError), Err: err}
}
