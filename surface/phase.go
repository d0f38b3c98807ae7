package surface

// Phase is the lifecycle stage a guest call runs under. Idle is both the
// initial state and the rest state between calls; exactly one phase is
// active at any instant.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInit
	PhaseResize
	PhaseEvent
	PhaseFrame
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInit:
		return "init"
	case PhaseResize:
		return "resize"
	case PhaseEvent:
		return "event"
	case PhaseFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// allowsDraw reports whether drawing capabilities are legal in this phase.
func (p Phase) allowsDraw() bool {
	return p == PhaseFrame
}

// allowsRequestFrame reports whether request-frame is legal in this phase.
func (p Phase) allowsRequestFrame() bool {
	return p != PhaseIdle
}
