package session

type State int

const (
	StateIdle State = iota
	StateSelecting
	StateComputing
	StateRanked
	StateBranchPending
	StateBranchResolved
	StateBranchUnavailable
	StateError
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateComputing:
		return "computing"
	case StateRanked:
		return "ranked"
	case StateBranchPending:
		return "branch_pending"
	case StateBranchResolved:
		return "branch_resolved"
	case StateBranchUnavailable:
		return "branch_unavailable"
	case StateError:
		return "error"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// hasRanking reports whether the ranking of the current list is valid in s.
func (s State) hasRanking() bool {
	switch s {
	case StateRanked, StateBranchPending, StateBranchResolved, StateBranchUnavailable:
		return true
	}
	return false
}
