package ucp

// Status is a checkout session lifecycle state.
type Status string

const (
	StatusCreated          Status = "created"
	StatusReadyForComplete Status = "ready_for_complete"
	StatusCompleted        Status = "completed"
)

var statusRank = map[Status]int{
	StatusCreated:          0,
	StatusReadyForComplete: 1,
	StatusCompleted:        2,
}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed.
// Transitions only move forward; a completed session may only repeat
// the completed state.
func (s Status) CanTransition(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	if s == StatusCompleted {
		return next == StatusCompleted
	}
	return to >= from
}

// Terminal reports whether no further transitions change the session.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}
