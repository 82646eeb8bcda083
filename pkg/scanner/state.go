package scanner

import "time"

// State is the lifecycle state of a Session.
type State int

const (
	Idle State = iota
	Scanning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	default:
		return "unknown"
	}
}

// StopReason records why a scan returned to Idle.
type StopReason int

const (
	NotStopped StopReason = iota
	StopRequested
	StopExpired
	StopClosed
	StopFailed
)

func (r StopReason) String() string {
	switch r {
	case NotStopped:
		return ""
	case StopRequested:
		return "stopped"
	case StopExpired:
		return "expired"
	case StopClosed:
		return "closed"
	case StopFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Scan describes one Start invocation. EndedAt and Reason are set once the
// scan returns to Idle; Err holds the radio's cause when Reason is StopFailed.
type Scan struct {
	ID        string
	Filter    FilterSet
	StartedAt time.Time
	Deadline  time.Time
	EndedAt   time.Time
	Reason    StopReason
	Err       error
}
