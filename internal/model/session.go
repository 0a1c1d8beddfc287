package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState enumerates the research state machine. Terminal states are
// StateDone and StateFailed.
type SessionState string

const (
	StatePlanning   SessionState = "planning"
	StateRetrieving SessionState = "retrieving"
	StateWriting    SessionState = "writing"
	StateCritiquing SessionState = "critiquing"
	StateDone       SessionState = "done"
	StateFailed     SessionState = "failed"
)

// Terminal reports whether the state ends the session
func (s SessionState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// ResearchSession is the mutable per-request state. It is created at request
// start, mutated in place by each phase, and reaches a terminal state before
// the report is returned. It is never persisted by the engine.
type ResearchSession struct {
	ID                      string
	Query                   string
	State                   SessionState
	Iteration               int // 1-based; never exceeds Bounds.MaxIterations
	SubQuestionsByIteration map[int][]SubQuestion
	Evidence                []EvidenceItem // all items registered so far, in registration order
	Draft                   string
	BestEffort              bool
	Trace                   []IterationRecord
	StartedAt               time.Time
}

// NewSession starts a session in the planning state
func NewSession(query string) *ResearchSession {
	return &ResearchSession{
		ID:                      uuid.NewString(),
		Query:                   query,
		State:                   StatePlanning,
		SubQuestionsByIteration: make(map[int][]SubQuestion),
		StartedAt:               time.Now().UTC(),
	}
}
