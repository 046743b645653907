package syncer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistoryProcessedTracksSuccessesOnly(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "history.jsonl"))

	records := []ActionResult{
		{CommentID: "c1", Intent: IntentReply, Success: true, Summary: "replied"},
		{CommentID: "c2", Intent: IntentEditBody, Success: false, Error: "edit rejected"},
		{CommentID: "c3", Intent: IntentCreateIssue, Success: true, Summary: "created issue #101"},
	}
	for _, r := range records {
		if err := h.Record(r); err != nil {
			t.Fatalf("Record(%s) failed: %v", r.CommentID, err)
		}
	}

	processed, err := h.Processed()
	if err != nil {
		t.Fatalf("Processed failed: %v", err)
	}
	if !processed["c1"] || !processed["c3"] {
		t.Errorf("processed = %v, want c1 and c3 present", processed)
	}
	if processed["c2"] {
		t.Error("failed comment c2 marked processed; it must stay retryable")
	}
}

func TestHistoryMissingFileIsEmpty(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "nope.jsonl"))
	processed, err := h.Processed()
	if err != nil {
		t.Fatalf("Processed failed: %v", err)
	}
	if len(processed) != 0 {
		t.Errorf("processed = %v, want empty", processed)
	}
}

func TestHistorySkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"commentId":"c1","intent":"reply","success":true,"summary":"s","timestamp":"t"}
not json at all
{"commentId":"c2","intent":"reply","success":true,"summary":"s","timestamp":"t"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	processed, err := NewHistory(path).Processed()
	if err != nil {
		t.Fatalf("Processed failed: %v", err)
	}
	if len(processed) != 2 {
		t.Errorf("processed %d comments, want 2 (malformed line skipped)", len(processed))
	}
}
