package chathub

// State is the connection lifecycle of a Session:
// Idle -> Connecting -> Open -> Closed, or Connecting -> Closed on failure.
// Closed is terminal; there is no reconnect.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Status label keys, resolved through the localization package.
const (
	StatusConnecting   = "status.connecting"
	StatusOnline       = "status.online"
	StatusDisconnected = "status.disconnected"
)

// StatusKey maps a state onto the label a chat view shows.
func (s State) StatusKey() string {
	switch s {
	case StateOpen:
		return StatusOnline
	case StateClosed:
		return StatusDisconnected
	}
	return StatusConnecting
}
