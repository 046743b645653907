package router

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

// fakeGenerator returns canned replies in order, repeating the last one.
type fakeGenerator struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	i := f.calls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

func classifierReply(category string, confidence int) string {
	return fmt.Sprintf(`{"category":%q,"confidence":%d,"reasoning":"the task names %s work"}`,
		category, confidence, category)
}

func TestRouteRuleBeatsKeyword(t *testing.T) {
	r := New()

	// Task text screams bug, but the documentation label decides.
	d := r.Route(context.Background(), "fix the broken example", Signals{Labels: []string{"documentation"}})
	if d.TaskType != TypeDocs {
		t.Errorf("TaskType = %s, want %s", d.TaskType, TypeDocs)
	}
	if d.Confidence != ruleConfidence {
		t.Errorf("Confidence = %d, want %d", d.Confidence, ruleConfidence)
	}
}

func TestRouteRuleTableFirstMatchWins(t *testing.T) {
	r := New()

	// bug-label precedes feature-label in the table.
	d := r.Route(context.Background(), "anything", Signals{Labels: []string{"enhancement", "bug"}})
	if d.TaskType != TypeBug {
		t.Errorf("TaskType = %s, want %s", d.TaskType, TypeBug)
	}
}

func TestRouteEvents(t *testing.T) {
	r := New()

	for _, event := range []string{"pull_request_review", "review_requested", "pull_request"} {
		d := r.Route(context.Background(), "look at this change", Signals{Event: event})
		if d.TaskType != TypeReview {
			t.Errorf("event %s: TaskType = %s, want %s", event, d.TaskType, TypeReview)
		}
	}
}

func TestRouteKeywords(t *testing.T) {
	tests := []struct {
		task string
		want TaskType
	}{
		{"refactor the session handling", TypeRefactor},
		{"optimize the query planner", TypePerformance},
		{"benchmark the encoder throughput", TypePerformance},
		{"update the readme", TypeDocs},
		{"review the open pull request", TypeReview},
		{"the login page is broken", TypeBug},
		{"draft the system design for ingestion", TypeArchitecture},
		{"expose a new api endpoint", TypeBackend},
		{"wireframe the settings screen", TypeDesign},
		{"set up the deploy pipeline", TypeInfra},
		{"implement dark mode", TypeFeature},
		// "review" wins over "fix": review phrasing precedes bug phrasing.
		{"review the fix before merging", TypeReview},
	}
	r := New()
	for _, tt := range tests {
		d := r.Route(context.Background(), tt.task, Signals{})
		if d.TaskType != tt.want {
			t.Errorf("Route(%q) = %s, want %s", tt.task, d.TaskType, tt.want)
		}
		if d.Confidence != keywordConfidence {
			t.Errorf("Route(%q) confidence = %d, want %d", tt.task, d.Confidence, keywordConfidence)
		}
	}
}

func TestRouteDeterministic(t *testing.T) {
	r := New()
	task := "fix the broken pagination in list.go"

	first := r.Route(context.Background(), task, Signals{Labels: []string{"bug"}})
	second := r.Route(context.Background(), task, Signals{Labels: []string{"bug"}})

	first.Timestamp = second.Timestamp
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical input produced different decisions:\n%+v\n%+v", first, second)
	}
}

func TestRouteEmptyTaskEscalates(t *testing.T) {
	r := New()

	d := r.Route(context.Background(), "   ", Signals{})
	if d.TaskType != TypeUnclear {
		t.Errorf("TaskType = %s, want %s", d.TaskType, TypeUnclear)
	}
	if len(d.AgentSequence) != 0 {
		t.Errorf("AgentSequence = %v, want empty", d.AgentSequence)
	}
	if d.Escalation == "" {
		t.Error("expected an escalation message")
	}
}

func TestRouteClassifierConfidenceGate(t *testing.T) {
	task := "ponder the quarterly roadmap"

	t.Run("below threshold escalates", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{classifierReply("backend", 79)}}
		r := New(WithClassifier(NewClassifier(gen)))

		d := r.Route(context.Background(), task, Signals{})
		if d.TaskType != TypeUnclear {
			t.Errorf("TaskType = %s, want %s", d.TaskType, TypeUnclear)
		}
		if d.Confidence != 79 {
			t.Errorf("Confidence = %d, want 79", d.Confidence)
		}
		if d.Escalation == "" {
			t.Error("expected an escalation message")
		}
	})

	t.Run("at threshold accepted", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{classifierReply("backend", 80)}}
		r := New(WithClassifier(NewClassifier(gen)))

		d := r.Route(context.Background(), task, Signals{})
		if d.TaskType != TypeBackend {
			t.Errorf("TaskType = %s, want %s", d.TaskType, TypeBackend)
		}
		if d.Confidence != 80 {
			t.Errorf("Confidence = %d, want 80", d.Confidence)
		}
	})

	t.Run("unclear category escalates regardless of confidence", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{classifierReply("unclear", 95)}}
		r := New(WithClassifier(NewClassifier(gen)))

		d := r.Route(context.Background(), task, Signals{})
		if d.TaskType != TypeUnclear {
			t.Errorf("TaskType = %s, want %s", d.TaskType, TypeUnclear)
		}
	})
}

func TestRouteWithoutClassifierEscalates(t *testing.T) {
	r := New()

	d := r.Route(context.Background(), "ponder the quarterly roadmap", Signals{})
	if d.TaskType != TypeUnclear {
		t.Errorf("TaskType = %s, want %s", d.TaskType, TypeUnclear)
	}
}

func TestAgentSequenceReturnsCopy(t *testing.T) {
	seq := AgentSequence(TypeFeature)
	if len(seq) == 0 {
		t.Fatal("expected a non-empty sequence for feature")
	}
	seq[0] = "mutated"

	again := AgentSequence(TypeFeature)
	if again[0] == "mutated" {
		t.Error("AgentSequence exposed the underlying table")
	}
}

func TestUnclearHasEmptySequence(t *testing.T) {
	if seq := AgentSequence(TypeUnclear); len(seq) != 0 {
		t.Errorf("AgentSequence(unclear) = %v, want empty", seq)
	}
}

func TestExtractFiles(t *testing.T) {
	files := extractFiles("fix internal/router/tables.go and update docs/usage.md please")
	want := []string{"internal/router/tables.go", "docs/usage.md"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("extractFiles = %v, want %v", files, want)
	}
}
