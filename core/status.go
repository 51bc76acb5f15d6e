package callsession

// Status is the lifecycle position of a call session. It only ever moves
// forward: Inactive → Connecting → Active → Disconnected, with the forced
// shortcut Connecting → Disconnected when a call is torn down before the
// service accepts it. Disconnected is terminal.
type Status int

const (
	StatusInactive Status = iota
	StatusConnecting
	StatusActive
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "INACTIVE"
	case StatusConnecting:
		return "CONNECTING"
	case StatusActive:
		return "ACTIVE"
	case StatusDisconnected:
		return "DISCONNECTED"
	}
	return "UNKNOWN"
}

// canTransition reports whether moving from s to next is a legal step.
// Illegal steps are dropped by the controller, never applied, so late or
// duplicate events cannot resurrect a closed session.
func (s Status) canTransition(next Status) bool {
	switch s {
	case StatusInactive:
		return next == StatusConnecting
	case StatusConnecting:
		return next == StatusActive || next == StatusDisconnected
	case StatusActive:
		return next == StatusDisconnected
	case StatusDisconnected:
		return false
	}
	return false
}
