package scheduler

import "fmt"

// State is a stage of one source's polling cycle.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateParsing   State = "parsing"
	StateDeduping  State = "deduping"
	StateNotifying State = "notifying"
)

// ValidateTransition checks that a state transition is one the cycle can
// legally make. The pipeline flows strictly downstream; any stage may fall
// back to idle when its source's cycle is aborted.
func ValidateTransition(from, to State) error {
	validTransitions := map[State][]State{
		StateIdle:      {StateFetching},
		StateFetching:  {StateParsing, StateIdle},
		StateParsing:   {StateDeduping, StateIdle},
		StateDeduping:  {StateNotifying, StateIdle},
		StateNotifying: {StateDeduping, StateIdle},
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown state: %s", from)
	}

	for _, next := range allowed {
		if next == to {
			return nil
		}
	}

	return fmt.Errorf("invalid state transition from %s to %s", from, to)
}
