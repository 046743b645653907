package runner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the append-only JSONL log of finished runs.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a run log writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append writes one finished run.
func (s *Store) Append(run TaskRun) error {
	line, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create run log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append run: %w", err)
	}
	return nil
}

// ReadAll returns every logged run in file order. Malformed lines are
// skipped.
func (s *Store) ReadAll() ([]TaskRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	var runs []TaskRun
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var run TaskRun
		if err := json.Unmarshal(scanner.Bytes(), &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, scanner.Err()
}
