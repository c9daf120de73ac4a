package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseOrderIsFixed(t *testing.T) {
	want := []Phase{
		PhaseIdle, PhaseStarting, PhaseOpening, PhaseQueryRounds,
		PhaseJury, PhaseVoting, PhaseVerdict, PhaseCompleted,
	}
	got := []Phase{PhaseIdle}
	for p := PhaseIdle; ; {
		next, ok := p.Next()
		if !ok {
			break
		}
		got = append(got, next)
		p = next
	}
	assert.Equal(t, want, got)
}

func TestPhaseTerminal(t *testing.T) {
	assert.True(t, PhaseCompleted.Terminal())
	assert.True(t, PhaseError.Terminal())
	for _, p := range []Phase{PhaseIdle, PhaseStarting, PhaseOpening, PhaseQueryRounds, PhaseJury, PhaseVoting, PhaseVerdict} {
		assert.False(t, p.Terminal(), "phase %s", p)
	}
}

func TestCanTransitionForwardOnly(t *testing.T) {
	assert.True(t, CanTransition(PhaseIdle, PhaseStarting))
	assert.True(t, CanTransition(PhaseVerdict, PhaseCompleted))

	// No skipping ahead.
	assert.False(t, CanTransition(PhaseIdle, PhaseOpening))
	assert.False(t, CanTransition(PhaseOpening, PhaseVoting))

	// No regression.
	assert.False(t, CanTransition(PhaseVoting, PhaseOpening))
	assert.False(t, CanTransition(PhaseStarting, PhaseIdle))

	// Nothing leaves a terminal phase.
	assert.False(t, CanTransition(PhaseCompleted, PhaseError))
	assert.False(t, CanTransition(PhaseError, PhaseStarting))
}

func TestErrorReachableFromAnyNonTerminalPhase(t *testing.T) {
	for _, p := range []Phase{PhaseIdle, PhaseStarting, PhaseOpening, PhaseQueryRounds, PhaseJury, PhaseVoting, PhaseVerdict} {
		assert.True(t, CanTransition(p, PhaseError), "from %s", p)
	}
}

func TestErrIllegalTransitionMessage(t *testing.T) {
	err := &ErrIllegalTransition{From: PhaseVoting, To: PhaseOpening}
	assert.Contains(t, err.Error(), "VOTING")
	assert.Contains(t, err.Error(), "OPENING_STATEMENTS")
}
