package router

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DecisionLog is the append-only audit trail of routing decisions. Each
// entry is one self-contained JSON line, so concurrent writers never need a
// read-modify-write cycle.
type DecisionLog struct {
	mu   sync.Mutex
	path string
}

// NewDecisionLog creates a log writing to path.
func NewDecisionLog(path string) *DecisionLog {
	return &DecisionLog{path: path}
}

// Append records a decision.
func (dl *DecisionLog) Append(d RoutingDecision) error {
	line, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(dl.path), 0o755); err != nil {
		return fmt.Errorf("failed to create decision log dir: %w", err)
	}
	f, err := os.OpenFile(dl.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open decision log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append decision: %w", err)
	}
	return nil
}
