package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CourtroomProfile tunes the courtroom procedure without code changes.
// Budgets and limits mirror the standing orders of the court: lawyers
// get two queries, jury experts one, the jury deliberates for three
// rounds, and the judge reads a wider slice of the transcript.
type CourtroomProfile struct {
	Name               string        `yaml:"name" json:"name"`
	LawyerQueryBudget  int           `yaml:"lawyer_query_budget" json:"lawyer_query_budget"`
	ExpertQueryBudget  int           `yaml:"expert_query_budget" json:"expert_query_budget"`
	DeliberationRounds int           `yaml:"deliberation_rounds" json:"deliberation_rounds"`
	TranscriptLimit    int           `yaml:"transcript_limit" json:"transcript_limit"`
	DeliberationLimit  int           `yaml:"deliberation_limit" json:"deliberation_limit"`
	JudgeContextLimit  int           `yaml:"judge_context_limit" json:"judge_context_limit"`
	Pacing             PacingConfig  `yaml:"pacing" json:"pacing"`
	Retention          RetentionSpec `yaml:"retention" json:"retention"`
}

// PacingConfig controls the externally observable pauses between turns.
// Milliseconds; zero disables pacing (used by tests).
type PacingConfig struct {
	PhaseMs int `yaml:"phase_ms" json:"phase_ms"`
	TurnMs  int `yaml:"turn_ms" json:"turn_ms"`
	SkipMs  int `yaml:"skip_ms" json:"skip_ms"`
}

// RetentionSpec controls how long terminal sessions stay in the registry.
type RetentionSpec struct {
	TerminalMinutes int `yaml:"terminal_minutes" json:"terminal_minutes"`
}

// DefaultProfile returns the standing courtroom procedure.
func DefaultProfile() *CourtroomProfile {
	return &CourtroomProfile{
		Name:               "standard",
		LawyerQueryBudget:  2,
		ExpertQueryBudget:  1,
		DeliberationRounds: 3,
		TranscriptLimit:    4000,
		DeliberationLimit:  2000,
		JudgeContextLimit:  8000,
		Pacing: PacingConfig{
			PhaseMs: 1000,
			TurnMs:  2000,
			SkipMs:  500,
		},
		Retention: RetentionSpec{TerminalMinutes: 60},
	}
}

// LoadProfile loads a courtroom profile YAML from path. Missing fields
// fall back to the standard procedure.
func LoadProfile(path string) (*CourtroomProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}

	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %w", path, err)
	}
	return profile, nil
}

// Validate rejects profiles that would stall or skip the procedure.
func (p *CourtroomProfile) Validate() error {
	if p.LawyerQueryBudget < 0 || p.ExpertQueryBudget < 0 {
		return fmt.Errorf("query budgets must be non-negative")
	}
	if p.DeliberationRounds < 1 {
		return fmt.Errorf("deliberation_rounds must be at least 1")
	}
	if p.TranscriptLimit <= 0 || p.DeliberationLimit <= 0 || p.JudgeContextLimit <= 0 {
		return fmt.Errorf("summary limits must be positive")
	}
	return nil
}
