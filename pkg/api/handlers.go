package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openjury/tribunal/pkg/intake"
	"github.com/openjury/tribunal/pkg/observability"
	"github.com/openjury/tribunal/pkg/session"
	"github.com/openjury/tribunal/pkg/store"
)

// Server wires the intake service, the session registry, and the
// document store behind the HTTP surface the frontend polls.
type Server struct {
	intake      *intake.Service
	registry    *session.Registry
	store       store.DocumentStore
	sessionDeps session.Deps
	metrics     *observability.Provider
	logger      *slog.Logger
}

func NewServer(in *intake.Service, reg *session.Registry, docs store.DocumentStore, deps session.Deps, metrics *observability.Provider) *Server {
	return &Server{
		intake:      in,
		registry:    reg,
		store:       docs,
		sessionDeps: deps,
		metrics:     metrics,
		logger:      slog.Default().With("component", "api"),
	}
}

// Routes builds the request mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/cases", s.HandleFlagPost)
	mux.HandleFunc("POST /v1/sessions", s.HandleStartSession)
	mux.HandleFunc("GET /v1/sessions/{case_id}", s.HandleGetSession)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	return mux
}

// HandleFlagPost runs the initial analysis and opens a case.
func (s *Server) HandleFlagPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req intake.FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	result, err := s.intake.FlagPost(r.Context(), req)
	if err != nil {
		WriteInternal(w, err)
		return
	}

	message := "Initial analysis complete. Violation detected. Ready for courtroom session."
	if !result.IsViolation {
		message = "No violation detected. Case closed."
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":       "success",
		"message":      message,
		"case_id":      result.CaseID,
		"case_details": result.CaseDetails,
	})
}

// StartSessionRequest names the case to open a courtroom for.
type StartSessionRequest struct {
	CaseID string `json:"case_id"`
}

// HandleStartSession launches the courtroom session for a flagged case.
// The session runs in the background; the frontend polls for progress.
func (s *Server) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.CaseID == "" {
		WriteBadRequest(w, "Missing required field: case_id")
		return
	}

	if _, err := s.registry.Get(req.CaseID); err == nil {
		WriteConflict(w, "Courtroom session for this case is already active")
		return
	}

	caseDoc, err := s.store.Get(r.Context(), s.intake.Collection(), req.CaseID)
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w, "Case not found")
		return
	}
	if err != nil {
		WriteInternal(w, err)
		return
	}

	orch := session.New(req.CaseID, caseDoc, s.sessionDeps)
	if err := s.registry.Add(orch); err != nil {
		WriteConflict(w, "Courtroom session for this case is already active")
		return
	}

	// Detach from the request: the session outlives the HTTP call.
	done := s.metrics.TrackSession(context.Background(), req.CaseID)
	go func() {
		orch.Run(context.Background())
		var runErr error
		if msg := orch.State().ErrorMessage(); msg != "" {
			runErr = errors.New(msg)
		}
		done(runErr)
	}()
	s.logger.Info("courtroom session started", "case_id", req.CaseID)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"message": "Courtroom session started",
		"case_id": req.CaseID,
	})
}

// HandleGetSession returns the session snapshot as of this call. Errored
// sessions stay queryable; the caller sees the error message and the
// last good state.
func (s *Server) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	orch, err := s.registry.Get(caseID)
	if err != nil {
		WriteNotFound(w, "No courtroom session found for this case")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(orch.State().Snapshot())
}

// HandleHealth is the liveness probe.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
