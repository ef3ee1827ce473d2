package domain

// State represents the current position of a purchase process in its lifecycle.
type State string

const (
	StatePending             State = "pending"                 // Created, no biller submission yet
	StateValid               State = "valid"                   // Payment and user info validated
	StateThreeDLookupDone    State = "threed_lookup_performed" // 3-D Secure lookup returned a challenge
	StateThreeDAuthenticated State = "threed_authenticated"    // ACS challenge completed
	StateRedirected          State = "redirected"              // Browser sent to a third-party biller
	StateProcessed           State = "processed"               // Terminal; outcome lives on the transactions
)

// transitions holds the valid forward transitions for each state. A state
// absent from a target list can never be reached from that source.
var transitions = map[State][]State{
	StatePending:             {StateValid, StateThreeDLookupDone, StateRedirected, StateProcessed},
	StateValid:               {StateThreeDLookupDone, StateRedirected, StateProcessed},
	StateThreeDLookupDone:    {StateThreeDAuthenticated, StateProcessed},
	StateThreeDAuthenticated: {StateValid, StateRedirected, StateProcessed},
	StateRedirected:          {StateValid, StateProcessed},
	StateProcessed:           {},
}

// CanTransition reports whether moving from s to target is allowed.
func (s State) CanTransition(target State) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// ParseState validates a serialized state name.
func ParseState(raw string) (State, bool) {
	s := State(raw)
	_, ok := transitions[s]
	return s, ok
}
