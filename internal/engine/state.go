package engine

import "github.com/scoutlab/scout/internal/model"

// Outcome summarizes a phase result for the transition function
type Outcome struct {
	// Fatal marks a session-fatal phase failure (planning on iteration 1,
	// or writing with nothing to fall back on)
	Fatal bool

	// Continue requests another retrieval round after a critique
	Continue bool
}

// Next is the pure transition function of the research state machine:
//
//	PLANNING → RETRIEVING → WRITING → CRITIQUING → {RETRIEVING | DONE}
//
// Terminal states map to themselves. Keeping this a pure function of
// (state, outcome) makes the iteration bounds testable without any network.
func Next(state model.SessionState, out Outcome) model.SessionState {
	if out.Fatal {
		return model.StateFailed
	}

	switch state {
	case model.StatePlanning:
		return model.StateRetrieving
	case model.StateRetrieving:
		return model.StateWriting
	case model.StateWriting:
		return model.StateCritiquing
	case model.StateCritiquing:
		if out.Continue {
			return model.StateRetrieving
		}
		return model.StateDone
	default:
		return state
	}
}
