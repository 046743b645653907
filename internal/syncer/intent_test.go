package syncer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecohq/eco/internal/router"
)

func intentEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(router.New(), &fakePlatform{thread: testThread()},
		NewHistory(filepath.Join(t.TempDir(), "history.jsonl")))
}

func TestClassifyComment(t *testing.T) {
	tests := []struct {
		body string
		want IntentKind
	}{
		{"please update the PR description with the rollout plan", IntentUpdateDescription},
		{"update the issue body to mention version 1.4", IntentEditBody},
		{"can you create an issue to track the flaky test?", IntentCreateIssue},
		{"fix the code that parses timestamps", IntentChangeCode},
		{"thanks, lgtm!", IntentReply},
		{"what does this flag actually control?", IntentClarify},
		// No pattern, but routable via the bug keyword: treated as code work.
		{"pagination is broken on the second page", IntentChangeCode},
		// No pattern and unroutable: ask instead of guessing.
		{"hmm, not sure about this one", IntentClarify},
	}
	e := intentEngine(t)
	for _, tt := range tests {
		in := e.classifyComment(context.Background(), testThread(), comment("c", tt.body, time.Now()))
		if in.Kind != tt.want {
			t.Errorf("classifyComment(%q) = %s, want %s", tt.body, in.Kind, tt.want)
		}
	}
}

func TestUpdateDescriptionWinsOverEditBody(t *testing.T) {
	e := intentEngine(t)
	in := e.classifyComment(context.Background(), testThread(),
		comment("c", "edit the pull request description please", time.Now()))
	if in.Kind != IntentUpdateDescription {
		t.Errorf("Kind = %s, want %s", in.Kind, IntentUpdateDescription)
	}
}

func TestResourceKey(t *testing.T) {
	th := testThread()
	now := time.Now()
	edit := Intent{Kind: IntentEditBody, Thread: th, Comment: comment("c1", "b", now)}
	desc := Intent{Kind: IntentUpdateDescription, Thread: th, Comment: comment("c2", "b", now)}
	code := Intent{Kind: IntentChangeCode, Thread: th, Comment: comment("c3", "b", now)}
	replyA := Intent{Kind: IntentReply, Thread: th, Comment: comment("c4", "b", now)}
	replyB := Intent{Kind: IntentReply, Thread: th, Comment: comment("c5", "b", now)}

	if edit.ResourceKey() != desc.ResourceKey() {
		t.Error("body edits and description updates should share a resource")
	}
	if edit.ResourceKey() == code.ResourceKey() {
		t.Error("body edits and code changes should not share a resource")
	}
	if replyA.ResourceKey() == replyB.ResourceKey() {
		t.Error("independent replies should not share a resource")
	}
}

func TestIssueTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"first line only", "Track the flaky test\nIt fails about once a week.", "Track the flaky test"},
		{"empty body", "   \n", "Follow-up from comment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := issueTitle(tt.body); got != tt.want {
				t.Errorf("issueTitle(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}

	t.Run("long first line truncated", func(t *testing.T) {
		long := "Create an issue about the extremely long and detailed description of the failure mode we keep hitting"
		got := issueTitle(long)
		if len(got) > maxIssueTitleLen {
			t.Errorf("len(title) = %d, want <= %d", len(got), maxIssueTitleLen)
		}
		if got[len(got)-3:] != "..." {
			t.Errorf("truncated title %q missing ellipsis", got)
		}
	})
}
