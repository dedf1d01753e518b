package sim

import "fmt"

// A State is a phase of the time loop of a worker.
type State int

// The states of a worker. A worker starts in Initializing, alternates
// between Stepping and Emitting, and ends in Finalized.
const (
	Initializing State = iota
	Stepping
	Emitting
	Finalizing
	Finalized
)

var stateNames = [...]string{"Initializing", "Stepping", "Emitting", "Finalizing", "Finalized"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}
