// Package agent defines the courtroom participants. Agents are stateless
// strategy objects: prompts are built from the context bag the
// orchestrator assembles each turn, and all per-session counters live in
// session state.
package agent

import (
	"context"
	"fmt"

	"github.com/openjury/tribunal/pkg/llm"
)

// Role identifies a courtroom participant's behavior.
type Role string

const (
	RoleProsecution Role = "prosecution"
	RoleDefense     Role = "defense"
	RoleJuryExpert  Role = "jury_expert"
	RoleJudge       Role = "judge"
	RoleClerk       Role = "clerk"
)

// Action is one kind of turn an agent can take.
type Action string

const (
	ActionOpeningStatement Action = "opening_statement"
	ActionRebuttal         Action = "rebuttal_statement"
	ActionQuery            Action = "query"
	ActionAnswer           Action = "answer_query"
	ActionDeliberate       Action = "deliberate"
	ActionVote             Action = "vote"
	ActionVerdict          Action = "verdict"
	ActionSummarize        Action = "summarize"
)

// Context is the opaque key-value bag the orchestrator assembles for a
// turn. Recognized keys are documented on the prompt builders.
type Context map[string]any

// Output is the tagged result of one agent turn: either free text
// (deliberation) or a schema-validated record.
type Output struct {
	text   string
	fields map[string]any
}

// Text wraps a free-text turn result.
func Text(s string) Output { return Output{text: s} }

// Structured wraps a schema-validated record.
func Structured(fields map[string]any) Output { return Output{fields: fields} }

// IsText reports whether the output is a free-text turn.
func (o Output) IsText() bool { return o.fields == nil }

// Text returns the free-text content, or empty for structured outputs.
func (o Output) String() string { return o.text }

// Fields returns the structured record, or nil for text outputs.
func (o Output) Fields() map[string]any { return o.fields }

// Field returns a string-typed field, empty if absent or mistyped.
func (o Output) Field(key string) string {
	s, _ := o.fields[key].(string)
	return s
}

// Number returns a numeric field; JSON numbers decode as float64.
func (o Output) Number(key string) float64 {
	f, _ := o.fields[key].(float64)
	return f
}

// Agent is a named participant backed by the reasoning service.
type Agent struct {
	Name        string
	Role        Role
	Description string
	// MaxQueries bounds question-asking turns in the query rounds.
	// Zero means the agent does not participate in that phase.
	MaxQueries int

	client llm.Client
}

// New creates an agent. The description seeds the agent's prompts and is
// opaque to the orchestrator.
func New(name string, role Role, description string, maxQueries int, client llm.Client) *Agent {
	return &Agent{
		Name:        name,
		Role:        role,
		Description: description,
		MaxQueries:  maxQueries,
		client:      client,
	}
}

// Act performs one turn. Deliberation is a free-text exchange; every
// other action returns a record validated against the role's schema.
func (a *Agent) Act(ctx context.Context, action Action, tc Context) (Output, error) {
	if action == ActionDeliberate {
		prompt := a.deliberationPrompt(tc)
		text, err := a.client.Generate(ctx, prompt)
		if err != nil {
			return Output{}, fmt.Errorf("%s: deliberation: %w", a.Name, err)
		}
		return Text(text), nil
	}

	prompt, schema, err := a.buildPrompt(action, tc)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", a.Name, err)
	}

	fields, err := a.client.GenerateStructured(ctx, prompt, schema)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %s: %w", a.Name, action, err)
	}
	return Structured(fields), nil
}
