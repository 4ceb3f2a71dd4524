package model

type AttemptStatus string

const (
	StatusNotStarted AttemptStatus = "NOT_STARTED"
	StatusInProgress AttemptStatus = "IN_PROGRESS"
	StatusSubmitted  AttemptStatus = "SUBMITTED"
	StatusExpired    AttemptStatus = "EXPIRED"
)

type AttemptEvent string

const (
	EventStart  AttemptEvent = "START"
	EventSubmit AttemptEvent = "SUBMIT"
	EventExpire AttemptEvent = "EXPIRE"
)

// Sections that were never started are closed by EXPIRE when their attempt
// times out; that is the only edge leaving NOT_STARTED other than START.
var transitions = map[AttemptStatus]map[AttemptEvent]AttemptStatus{
	StatusNotStarted: {
		EventStart:  StatusInProgress,
		EventExpire: StatusExpired,
	},
	StatusInProgress: {
		EventSubmit: StatusSubmitted,
		EventExpire: StatusExpired,
	},
}

// Next returns the status reached by applying e, or false when the pair is
// not a legal transition.
func (s AttemptStatus) Next(e AttemptEvent) (AttemptStatus, bool) {
	to, ok := transitions[s][e]
	return to, ok
}

func (s AttemptStatus) IsTerminal() bool {
	return s == StatusSubmitted || s == StatusExpired
}

func (s AttemptStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusSubmitted, StatusExpired:
		return true
	}
	return false
}
