// Package session holds the courtroom session state machine: the shared
// state every turn mutates, the phase orchestrator that drives the
// proceeding, and the process-wide registry a frontend polls through.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// EntryKind classifies a transcript entry.
type EntryKind string

const (
	KindSystem       EntryKind = "system"
	KindStatement    EntryKind = "statement"
	KindQuery        EntryKind = "query"
	KindAnswer       EntryKind = "answer"
	KindDeliberation EntryKind = "deliberation"
	KindVote         EntryKind = "vote"
	KindLog          EntryKind = "log"
	KindError        EntryKind = "error"
)

// AgentStatus is the observational per-agent state for UI display.
type AgentStatus string

const (
	StatusWaiting AgentStatus = "Waiting"
	StatusActing  AgentStatus = "Acting"
)

// TranscriptEntry is one line of the public record. Append-only.
type TranscriptEntry struct {
	AgentName string    `json:"agent_name"`
	Message   string    `json:"message"`
	Kind      EntryKind `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliberationEntry is one line of the jury's internal history, kept
// separate from the public transcript.
type DeliberationEntry struct {
	AgentName string    `json:"agent_name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Recommendation is the sentencing recommendation attached to a vote.
type Recommendation struct {
	FineEth         float64 `json:"fine_eth"`
	BanStatus       string  `json:"ban_status"`
	CompensationEth float64 `json:"compensation_eth"`
	Explanation     string  `json:"explanation,omitempty"`
}

// Vote is one juror's recorded vote.
type Vote struct {
	Vote           string         `json:"vote"`
	Recommendation Recommendation `json:"recommendation"`
}

// State is the single source of truth for a session. All mutation goes
// through its methods; invariants (query budgets, vote phase, forward-only
// phases, verdict set once) are enforced here.
type State struct {
	mu sync.RWMutex

	caseID      string
	caseDetails map[string]any

	transcript   []TranscriptEntry
	queryCounts  map[string]int
	budgets      map[string]int
	deliberation []DeliberationEntry
	votes        map[string]Vote
	consensus    string

	phase        Phase
	currentTurn  string
	lastOutput   map[string]any
	finalVerdict map[string]any
	errMsg       string
	agentsStatus map[string]AgentStatus

	terminalAt time.Time
	clock      func() time.Time
}

// NewState creates the state for one case. budgets maps agent name to
// max queries and is the only source of truth for budget checks.
func NewState(caseID string, caseDetails map[string]any, budgets map[string]int, agentNames []string) *State {
	status := make(map[string]AgentStatus, len(agentNames))
	for _, name := range agentNames {
		status[name] = StatusWaiting
	}
	b := make(map[string]int, len(budgets))
	for k, v := range budgets {
		b[k] = v
	}
	return &State{
		caseID:       caseID,
		caseDetails:  caseDetails,
		queryCounts:  make(map[string]int),
		budgets:      b,
		votes:        make(map[string]Vote),
		phase:        PhaseIdle,
		agentsStatus: status,
		clock:        time.Now,
	}
}

// WithClock overrides clock for testing.
func (s *State) WithClock(clock func() time.Time) *State {
	s.clock = clock
	return s
}

// CaseID returns the case this session adjudicates.
func (s *State) CaseID() string { return s.caseID }

// CaseDetails returns the immutable case input.
func (s *State) CaseDetails() map[string]any { return s.caseDetails }

// Phase returns the current court phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// AdvanceTo moves the phase forward per the transition table.
func (s *State) AdvanceTo(to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !CanTransition(s.phase, to) {
		return &ErrIllegalTransition{From: s.phase, To: to}
	}
	s.phase = to
	if to.Terminal() {
		s.terminalAt = s.clock()
	}
	return nil
}

// TerminalSince returns when the session entered a terminal phase, zero
// if it has not.
func (s *State) TerminalSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminalAt
}

// AppendTranscript appends one entry to the public record.
func (s *State) AppendTranscript(agentName, message string, kind EntryKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, TranscriptEntry{
		AgentName: agentName,
		Message:   message,
		Kind:      kind,
		Timestamp: s.clock(),
	})
}

// QueryCount returns the queries an agent has spent so far.
func (s *State) QueryCount(agentName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryCounts[agentName]
}

// Budget returns the agent's maximum query allowance.
func (s *State) Budget(agentName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budgets[agentName]
}

// IncrementQueryCount spends one query. Exceeding the budget is a
// programming error given the fixed query-order table, so it is rejected
// rather than silently clamped.
func (s *State) IncrementQueryCount(agentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryCounts[agentName]+1 > s.budgets[agentName] {
		return fmt.Errorf("query budget exceeded for %s: %d/%d", agentName, s.queryCounts[agentName]+1, s.budgets[agentName])
	}
	s.queryCounts[agentName]++
	return nil
}

// AppendDeliberation adds a point to the jury's internal history.
func (s *State) AppendDeliberation(agentName, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliberation = append(s.deliberation, DeliberationEntry{
		AgentName: agentName,
		Message:   message,
		Timestamp: s.clock(),
	})
}

// RecordVote records one juror's vote, idempotently by agent name. Votes
// are only accepted during the voting phase.
func (s *State) RecordVote(agentName string, vote Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseVoting {
		return fmt.Errorf("vote from %s outside voting phase (%s)", agentName, s.phase)
	}
	s.votes[agentName] = vote
	return nil
}

// Votes returns a copy of the recorded votes.
func (s *State) Votes() map[string]Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Vote, len(s.votes))
	for k, v := range s.votes {
		out[k] = v
	}
	return out
}

// SetConsensus stores the jury's advisory consensus label.
func (s *State) SetConsensus(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consensus = label
}

// Consensus returns the jury's advisory consensus label.
func (s *State) Consensus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consensus
}

// SetVerdict persists the judge's synthesized output. Set at most once.
func (s *State) SetVerdict(verdict map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalVerdict != nil {
		return fmt.Errorf("final verdict already set for case %s", s.caseID)
	}
	s.finalVerdict = verdict
	return nil
}

// Verdict returns the final verdict, nil before sentencing.
func (s *State) Verdict() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalVerdict
}

// SetError records the first unrecoverable failure. The session is
// terminal once set; later calls keep the original message.
func (s *State) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errMsg == "" {
		s.errMsg = msg
	}
}

// ErrorMessage returns the recorded failure, empty when healthy.
func (s *State) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// SetAgentStatus updates the observational per-agent status.
func (s *State) SetAgentStatus(agentName string, status AgentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentsStatus[agentName] = status
}

// SetCurrentTurn records whose turn it is, with the turn's full output.
func (s *State) SetCurrentTurn(agentName string, output map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTurn = agentName
	s.lastOutput = output
}

// TranscriptSummary returns the most recent limit characters of the
// public transcript, formatted one speaker per line. Truncation drops
// the oldest content.
func (s *State) TranscriptSummary(limit int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]string, 0, len(s.transcript))
	for _, e := range s.transcript {
		lines = append(lines, e.AgentName+": "+e.Message)
	}
	return tail(strings.Join(lines, "\n"), limit)
}

// DeliberationSummary returns the most recent limit characters of the
// jury's internal history.
func (s *State) DeliberationSummary(limit int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]string, 0, len(s.deliberation))
	for _, e := range s.deliberation {
		lines = append(lines, e.AgentName+": "+e.Message)
	}
	return tail(strings.Join(lines, "\n"), limit)
}

func tail(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[len(text)-limit:]
}

// Snapshot is the read-only projection a frontend polls.
type Snapshot struct {
	CaseID           string                 `json:"case_id"`
	CourtStatus      Phase                  `json:"court_status"`
	CurrentTurnAgent string                 `json:"current_turn_agent"`
	Transcript       []TranscriptEntry      `json:"transcript"`
	Deliberation     []DeliberationEntry    `json:"jury_deliberation_history"`
	JuryVotes        map[string]Vote        `json:"jury_votes"`
	Consensus        string                 `json:"jury_consensus,omitempty"`
	FinalVerdict     map[string]any         `json:"final_verdict"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	AgentsStatus     map[string]AgentStatus `json:"agents_status"`
}

// Snapshot returns the session state as of the moment of the call.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transcript := make([]TranscriptEntry, len(s.transcript))
	copy(transcript, s.transcript)
	deliberation := make([]DeliberationEntry, len(s.deliberation))
	copy(deliberation, s.deliberation)
	votes := make(map[string]Vote, len(s.votes))
	for k, v := range s.votes {
		votes[k] = v
	}
	status := make(map[string]AgentStatus, len(s.agentsStatus))
	for k, v := range s.agentsStatus {
		status[k] = v
	}

	return Snapshot{
		CaseID:           s.caseID,
		CourtStatus:      s.phase,
		CurrentTurnAgent: s.currentTurn,
		Transcript:       transcript,
		Deliberation:     deliberation,
		JuryVotes:        votes,
		Consensus:        s.consensus,
		FinalVerdict:     s.finalVerdict,
		ErrorMessage:     s.errMsg,
		AgentsStatus:     status,
	}
}
