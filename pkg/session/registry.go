package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrSessionExists   = errors.New("session already active for case")
	ErrSessionNotFound = errors.New("no courtroom session found for case")
)

// Registry is the process-wide case-id → session map. Sessions are kept
// for a retention window after reaching a terminal phase, then evicted;
// the registry is in-memory only, so a process restart loses all active
// sessions.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Orchestrator
	retention time.Duration
	logger    *slog.Logger
	clock     func() time.Time
}

// NewRegistry creates a registry that evicts terminal sessions after
// retention.
func NewRegistry(retention time.Duration) *Registry {
	return &Registry{
		sessions:  make(map[string]*Orchestrator),
		retention: retention,
		logger:    slog.Default().With("component", "registry"),
		clock:     time.Now,
	}
}

// WithClock overrides clock for testing.
func (r *Registry) WithClock(clock func() time.Time) *Registry {
	r.clock = clock
	return r
}

// Add registers a session for its case id. A case can have at most one
// live session.
func (r *Registry) Add(o *Orchestrator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	caseID := o.State().CaseID()
	if _, ok := r.sessions[caseID]; ok {
		return ErrSessionExists
	}
	r.sessions[caseID] = o
	return nil
}

// Get looks up the session for a case id.
func (r *Registry) Get(caseID string) (*Orchestrator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.sessions[caseID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return o, nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts terminal sessions older than the retention window and
// returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	evicted := 0
	for caseID, o := range r.sessions {
		since := o.State().TerminalSince()
		if !since.IsZero() && now.Sub(since) >= r.retention {
			delete(r.sessions, caseID)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Info("evicted terminal sessions", "count", evicted)
	}
	return evicted
}

// StartJanitor sweeps on the given interval until ctx is canceled.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}
