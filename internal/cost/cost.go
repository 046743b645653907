// Package cost tracks token usage and estimates spend. All calculations use
// a static pricing table; the store is an append-only JSONL file that is
// never read back to make decisions.
package cost

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// UsageRecord is a single token usage event.
type UsageRecord struct {
	Timestamp    string `json:"timestamp"`
	Model        string `json:"model"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
	Command      string `json:"command"`
	Thread       int    `json:"thread,omitempty"`
	RunID        string `json:"runId,omitempty"`
}

// DailySummary aggregates usage for one calendar day.
type DailySummary struct {
	Date              string   `json:"date"`
	TotalInputTokens  int      `json:"totalInputTokens"`
	TotalOutputTokens int      `json:"totalOutputTokens"`
	EstimatedCostUSD  float64  `json:"estimatedCostUsd"`
	RecordCount       int      `json:"recordCount"`
	Models            []string `json:"models"`
	Commands          []string `json:"commands"`
}

type pricing struct {
	input  float64 // USD per 1M input tokens
	output float64 // USD per 1M output tokens
}

var modelPricing = map[string]pricing{
	// Anthropic
	"claude-opus-4-20250514":    {15.00, 75.00},
	"claude-sonnet-4-20250514":  {3.00, 15.00},
	"claude-haiku-3-5-20241022": {0.80, 4.00},
	// OpenAI
	"gpt-4o":      {2.50, 10.00},
	"gpt-4o-mini": {0.15, 0.60},
	// Google
	"gemini-2.0-flash": {0.10, 0.40},
	"gemini-2.5-pro":   {1.25, 10.00},
}

var defaultPricing = pricing{3.00, 15.00}

// EstimateCost returns the estimated cost in USD for a single usage event.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := modelPricing[model]
	if !ok {
		p = defaultPricing
	}
	cost := float64(inputTokens)/1e6*p.input + float64(outputTokens)/1e6*p.output
	return math.Round(cost*1e6) / 1e6
}

// Store is an append-only JSONL store for usage records. Appends are safe
// for concurrent writers: each record is written as one self-contained line
// under a mutex.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append writes a single usage record. A missing timestamp is filled in.
func (s *Store) Append(rec UsageRecord) error {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create usage dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open usage file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// ReadAll returns every record in the store. Malformed lines are skipped.
func (s *Store) ReadAll() ([]UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open usage file: %w", err)
	}
	defer f.Close()

	var records []UsageRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec UsageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// ReadFiltered returns records matching all supplied filters. Date-only
// values (YYYY-MM-DD) cover the full day.
func (s *Store) ReadFiltered(since, until, command string) ([]UsageRecord, error) {
	records, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	if since != "" && len(since) == 10 {
		since += "T00:00:00Z"
	}
	if until != "" && len(until) == 10 {
		until += "T23:59:59Z"
	}
	var out []UsageRecord
	for _, r := range records {
		if since != "" && r.Timestamp < since {
			continue
		}
		if until != "" && r.Timestamp > until {
			continue
		}
		if command != "" && r.Command != command {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SummarizeByDay aggregates records into daily summaries, sorted
// chronologically.
func SummarizeByDay(records []UsageRecord) []DailySummary {
	byDay := map[string][]UsageRecord{}
	for _, r := range records {
		if len(r.Timestamp) < 10 {
			continue
		}
		day := r.Timestamp[:10]
		byDay[day] = append(byDay[day], r)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		recs := byDay[day]
		sum := DailySummary{Date: day, RecordCount: len(recs)}
		models := map[string]bool{}
		commands := map[string]bool{}
		var cost float64
		for _, r := range recs {
			sum.TotalInputTokens += r.InputTokens
			sum.TotalOutputTokens += r.OutputTokens
			cost += EstimateCost(r.Model, r.InputTokens, r.OutputTokens)
			models[r.Model] = true
			commands[r.Command] = true
		}
		sum.EstimatedCostUSD = math.Round(cost*1e6) / 1e6
		sum.Models = sortedKeys(models)
		sum.Commands = sortedKeys(commands)
		summaries = append(summaries, sum)
	}
	return summaries
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
