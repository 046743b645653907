package syncer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// historyEntry is one processed-comment record.
type historyEntry struct {
	CommentID string `json:"commentId"`
	Intent    string `json:"intent"`
	Success   bool   `json:"success"`
	Summary   string `json:"summary"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// History is the append-only JSONL record of processed comments. It is the
// primary idempotence guarantee across sync passes: a comment whose intent
// succeeded is never reprocessed, while failed comments stay eligible for
// retry on the next pass.
type History struct {
	mu   sync.Mutex
	path string
}

// NewHistory creates a history store writing to path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Record appends one action result.
func (h *History) Record(res ActionResult) error {
	entry := historyEntry{
		CommentID: res.CommentID,
		Intent:    string(res.Intent),
		Success:   res.Success,
		Summary:   res.Summary,
		Error:     res.Error,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history dir: %w", err)
	}
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Processed returns the set of comment ids with a successful record.
// Malformed lines are skipped.
func (h *History) Processed() (map[string]bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	processed := map[string]bool{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry historyEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Success {
			processed[entry.CommentID] = true
		}
	}
	return processed, scanner.Err()
}
