package session

import "fmt"

// Phase is one stage of the fixed courtroom state machine.
type Phase string

const (
	PhaseIdle        Phase = "IDLE"
	PhaseStarting    Phase = "STARTING"
	PhaseOpening     Phase = "OPENING_STATEMENTS"
	PhaseQueryRounds Phase = "QUERY_ROUNDS"
	PhaseJury        Phase = "JURY_DELIBERATION"
	PhaseVoting      Phase = "VOTING"
	PhaseVerdict     Phase = "VERDICT_AND_SENTENCING"
	PhaseCompleted   Phase = "COMPLETED"
	PhaseError       Phase = "ERROR"
)

// transitions is the declared forward order. ERROR is reachable from any
// non-terminal phase and is handled in CanTransition rather than listed.
var transitions = map[Phase]Phase{
	PhaseIdle:        PhaseStarting,
	PhaseStarting:    PhaseOpening,
	PhaseOpening:     PhaseQueryRounds,
	PhaseQueryRounds: PhaseJury,
	PhaseJury:        PhaseVoting,
	PhaseVoting:      PhaseVerdict,
	PhaseVerdict:     PhaseCompleted,
}

// Terminal reports whether the phase absorbs the session.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// Next returns the declared successor phase.
func (p Phase) Next() (Phase, bool) {
	next, ok := transitions[p]
	return next, ok
}

// CanTransition reports whether from → to is a legal move: the declared
// successor, or ERROR from any non-terminal phase. Phases never regress.
func CanTransition(from, to Phase) bool {
	if to == PhaseError {
		return !from.Terminal()
	}
	next, ok := transitions[from]
	return ok && next == to
}

// ErrIllegalTransition is returned when an advance violates the table.
type ErrIllegalTransition struct {
	From, To Phase
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal phase transition %s -> %s", e.From, e.To)
}
