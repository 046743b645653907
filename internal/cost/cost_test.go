package cost

import (
	"path/filepath"
	"testing"
)

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		model   string
		in, out int
		want    float64
	}{
		{"claude-opus-4-20250514", 1_000_000, 1_000_000, 90.0},
		{"claude-haiku-3-5-20241022", 1_000_000, 0, 0.80},
		{"gpt-4o-mini", 0, 1_000_000, 0.60},
		// Unknown models fall back to mid-tier pricing.
		{"mystery-model", 1_000_000, 0, 3.00},
		{"claude-sonnet-4-20250514", 0, 0, 0},
	}
	for _, tt := range tests {
		if got := EstimateCost(tt.model, tt.in, tt.out); got != tt.want {
			t.Errorf("EstimateCost(%s, %d, %d) = %f, want %f", tt.model, tt.in, tt.out, got, tt.want)
		}
	}
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "usage.jsonl"))
	records := []UsageRecord{
		{Timestamp: "2026-08-27T10:00:00Z", Model: "claude-haiku-3-5-20241022", InputTokens: 1000, OutputTokens: 500, Command: "route"},
		{Timestamp: "2026-08-27T15:00:00Z", Model: "claude-sonnet-4-20250514", InputTokens: 2000, OutputTokens: 1000, Command: "sync"},
		{Timestamp: "2026-08-28T09:00:00Z", Model: "claude-opus-4-20250514", InputTokens: 3000, OutputTokens: 1500, Command: "judge"},
	}
	for _, r := range records {
		if err := s.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	return s
}

func TestReadFilteredByDateWindow(t *testing.T) {
	s := testStore(t)

	records, err := s.ReadFiltered("2026-08-28", "", "")
	if err != nil {
		t.Fatalf("ReadFiltered failed: %v", err)
	}
	if len(records) != 1 || records[0].Command != "judge" {
		t.Errorf("records = %+v, want only the judge record", records)
	}

	records, err = s.ReadFiltered("", "2026-08-27", "")
	if err != nil {
		t.Fatalf("ReadFiltered failed: %v", err)
	}
	// A date-only until covers the whole day.
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestReadFilteredByCommand(t *testing.T) {
	s := testStore(t)

	records, err := s.ReadFiltered("", "", "sync")
	if err != nil {
		t.Fatalf("ReadFiltered failed: %v", err)
	}
	if len(records) != 1 || records[0].Model != "claude-sonnet-4-20250514" {
		t.Errorf("records = %+v, want only the sync record", records)
	}
}

func TestSummarizeByDay(t *testing.T) {
	s := testStore(t)
	records, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	days := SummarizeByDay(records)
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].Date != "2026-08-27" || days[1].Date != "2026-08-28" {
		t.Errorf("days out of order: %s, %s", days[0].Date, days[1].Date)
	}

	first := days[0]
	if first.TotalInputTokens != 3000 || first.TotalOutputTokens != 1500 {
		t.Errorf("day totals = %d/%d, want 3000/1500", first.TotalInputTokens, first.TotalOutputTokens)
	}
	if first.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", first.RecordCount)
	}
	if len(first.Models) != 2 {
		t.Errorf("Models = %v, want both models", first.Models)
	}
	if first.EstimatedCostUSD <= 0 {
		t.Errorf("EstimatedCostUSD = %f, want positive", first.EstimatedCostUSD)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope.jsonl"))
	records, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil", records)
	}
}
