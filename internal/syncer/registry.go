package syncer

import (
	"sync"
	"time"
)

// RunStatus is the queryable state of one sync pass or thread unit.
type RunStatus struct {
	RunID     string      `json:"runId"`
	Thread    string      `json:"thread"`
	State     ThreadState `json:"state"`
	StartedAt time.Time   `json:"startedAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Registry maps run ids to status. It is written only by the sync engine
// and read by status reporting; there is no ambient global state.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]RunStatus
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: map[string]RunStatus{}}
}

// Set records or updates the status of one run.
func (r *Registry) Set(runID, thread string, state ThreadState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	status, ok := r.runs[runID]
	if !ok {
		status = RunStatus{RunID: runID, Thread: thread, StartedAt: now}
	}
	status.State = state
	status.UpdatedAt = now
	r.runs[runID] = status
}

// Snapshot returns a copy of all known runs.
func (r *Registry) Snapshot() []RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RunStatus, 0, len(r.runs))
	for _, s := range r.runs {
		out = append(out, s)
	}
	return out
}

// Get returns the status of one run.
func (r *Registry) Get(runID string) (RunStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.runs[runID]
	return s, ok
}
