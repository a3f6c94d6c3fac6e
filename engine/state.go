package engine

// State tracks an event through the engine. States only move forward;
// Done, Skipped and Failed are terminal.
type State int

// Event processing states.
const (
	StatePending State = iota
	StateEvaluating
	StateDispatched
	StateDone
	StateSkipped
	StateFailed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateEvaluating:
		return "evaluating"
	case StateDispatched:
		return "dispatched"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateDone || s == StateSkipped || s == StateFailed
}
