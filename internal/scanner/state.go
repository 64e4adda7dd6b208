package scanner

// State is the scan lifecycle state
type State int32

// Scanner states. Every scan returns to StateIdle, including failed ones.
const (
	StateIdle State = iota
	StateScanning
	StatePublishing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StatePublishing:
		return "publishing"
	default:
		return "unknown"
	}
}
