// Package intake handles flagged-post submission: the initial analyzer
// agent screens the content, and a case document is opened in the store.
// Cases with no detected violation close immediately; the rest wait for
// a courtroom session.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openjury/tribunal/pkg/llm"
	"github.com/openjury/tribunal/pkg/store"
)

// Case statuses set during intake. The courtroom updates the document
// with its own fields after sentencing.
const (
	StatusPendingAnalysis   = "Pending Initial Analysis"
	StatusViolationDetected = "Violation Detected"
	StatusNoViolation       = "No Violation - Initial Analysis"
	StatusClosedNoViolation = "Case Closed - No Violation"
)

var analysisSchema = &llm.Schema{
	Name: "post_analysis",
	Definition: `{
		"type": "object",
		"properties": {
			"isViolation": {"type": "boolean"},
			"violationType": {"type": "string"},
			"relevantLaws": {"type": "string"},
			"assessmentSummary": {"type": "string"}
		},
		"required": ["isViolation", "violationType"]
	}`,
}

// FlagRequest is a flagged-post submission.
type FlagRequest struct {
	PostContent      string `json:"postContent"`
	VictimInfo       string `json:"victimInfo"`
	UserID           string `json:"userId"`
	PostLink         string `json:"postLink,omitempty"`
	VictimEthAddress string `json:"victimEthAddress,omitempty"`
}

// Validate rejects submissions missing required fields.
func (r *FlagRequest) Validate() error {
	if r.PostContent == "" {
		return fmt.Errorf("postContent is required")
	}
	if r.UserID == "" {
		return fmt.Errorf("userId is required")
	}
	return nil
}

// Result is the intake outcome returned to the submitter.
type Result struct {
	CaseID      string         `json:"case_id"`
	IsViolation bool           `json:"is_violation"`
	CaseDetails map[string]any `json:"case_details"`
}

// Service runs the initial analysis and opens case documents.
type Service struct {
	llm        llm.Client
	store      store.DocumentStore
	collection string
	appID      string
	logger     *slog.Logger
	clock      func() time.Time
}

func NewService(client llm.Client, docs store.DocumentStore, collection, appID string) *Service {
	if collection == "" {
		collection = "cases"
	}
	return &Service{
		llm:        client,
		store:      docs,
		collection: collection,
		appID:      appID,
		logger:     slog.Default().With("component", "intake"),
		clock:      time.Now,
	}
}

// Collection returns the case collection this service writes to.
func (s *Service) Collection() string { return s.collection }

// FlagPost analyzes the flagged content and persists the opened case.
// Analyzer failure is fatal to the operation; the case document is only
// created once the analysis succeeded.
func (s *Service) FlagPost(ctx context.Context, req FlagRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	analysis, err := s.analyze(ctx, req.PostContent)
	if err != nil {
		return nil, fmt.Errorf("post analyzer failed: %w", err)
	}

	caseID := uuid.NewString()
	isViolation, _ := analysis["isViolation"].(bool)

	status := StatusNoViolation
	if isViolation {
		status = StatusViolationDetected
	}

	caseDoc := map[string]any{
		"id":               caseID,
		"timestamp":        s.clock().UTC().Format(time.RFC3339),
		"postContent":      req.PostContent,
		"postLink":         req.PostLink,
		"victimInfo":       req.VictimInfo,
		"victimEthAddress": req.VictimEthAddress,
		"userId":           req.UserID,
		"status":           status,
		"analysis":         analysis,
		"appId":            s.appID,
	}

	if err := s.store.Set(ctx, s.collection, caseID, caseDoc); err != nil {
		return nil, fmt.Errorf("failed to persist case: %w", err)
	}

	if !isViolation {
		s.logger.Info("no violation detected, case closed", "case_id", caseID)
		closed := map[string]any{"status": StatusClosedNoViolation}
		if err := s.store.Set(ctx, s.collection, caseID, closed); err != nil {
			return nil, fmt.Errorf("failed to close case: %w", err)
		}
		caseDoc["status"] = StatusClosedNoViolation
	}

	return &Result{
		CaseID:      caseID,
		IsViolation: isViolation,
		CaseDetails: caseDoc,
	}, nil
}

func (s *Service) analyze(ctx context.Context, postContent string) (map[string]any, error) {
	prompt := fmt.Sprintf(`You are an AI specializing in cyber law. Analyze the following post content for potential violations of common cyber laws (e.g., harassment, defamation, intellectual property, hate speech). Provide a brief assessment, identify potential violations, and cite which types of cyber laws might apply.
Post Content: %q

Respond in JSON with fields: isViolation, violationType, relevantLaws, assessmentSummary.`, postContent)

	return s.llm.GenerateStructured(ctx, prompt, analysisSchema)
}
