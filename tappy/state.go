package tappy

import "fmt"

// State is a step in the session lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateStreaming
	StateTerminating
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// transitions lists every legal move. Connecting may jump to Terminated
// because a failed connect has nothing to disconnect; once connected, the
// only way out is through Terminating.
var transitions = map[State][]State{
	StateDisconnected: {StateConnecting},
	StateConnecting:   {StateConnected, StateTerminated},
	StateConnected:    {StateStreaming, StateTerminating},
	StateStreaming:    {StateTerminating},
	StateTerminating:  {StateTerminated},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
