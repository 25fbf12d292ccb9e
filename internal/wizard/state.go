package wizard

type State string

const (
	StateSelection  State = "selection"
	StateDetails    State = "details"
	StatePayment    State = "payment"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateSelection:  {StateDetails},
	StateDetails:    {StateSelection, StatePayment},
	StatePayment:    {StateDetails, StateSubmitting},
	StateSubmitting: {StateSucceeded, StateFailed},
	// Failed is terminal for the attempt; retry starts over from the
	// selection step and resubmit re-sends the same request.
	StateFailed:    {StateSelection, StateSubmitting},
	StateSucceeded: {},
}

func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Allowed lists the states reachable from s.
func (s State) Allowed() []State {
	out := make([]State, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
