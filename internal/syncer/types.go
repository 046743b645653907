// Package syncer implements the comment-driven sync pass: fetch unresolved
// comments, classify each through the router, dispatch independent intents
// concurrently, resolve what succeeded, and post one summary per thread.
package syncer

import (
	"fmt"

	"github.com/ecohq/eco/internal/platform"
	"github.com/ecohq/eco/internal/router"
)

// IntentKind names one unit of work derived from a comment.
type IntentKind string

const (
	IntentEditBody          IntentKind = "edit_body"
	IntentUpdateDescription IntentKind = "update_description"
	IntentChangeCode        IntentKind = "change_code"
	IntentReply             IntentKind = "reply"
	IntentClarify           IntentKind = "clarify"
	IntentCreateIssue       IntentKind = "create_issue"
)

// Intent is one independent unit of work extracted from a single comment.
type Intent struct {
	Kind     IntentKind             `json:"kind"`
	Comment  platform.Comment       `json:"comment"`
	Thread   platform.Thread        `json:"thread"`
	Decision router.RoutingDecision `json:"decision"`
}

// ResourceKey names the mutable resource an intent touches. Intents with
// the same key on the same thread are serialized by comment creation time;
// everything else runs concurrently.
func (in Intent) ResourceKey() string {
	switch in.Kind {
	case IntentEditBody, IntentUpdateDescription:
		return fmt.Sprintf("%s/%d/body", in.Thread.Kind, in.Thread.Number)
	case IntentChangeCode:
		return fmt.Sprintf("%s/%d/code", in.Thread.Kind, in.Thread.Number)
	default:
		// Replies, clarifications, and issue creation touch nothing shared.
		return fmt.Sprintf("%s/%d/comment/%s", in.Thread.Kind, in.Thread.Number, in.Comment.ID)
	}
}

// ActionResult records the outcome of dispatching one intent.
type ActionResult struct {
	CommentID string     `json:"commentId"`
	Intent    IntentKind `json:"intent"`
	Success   bool       `json:"success"`
	Permanent bool       `json:"permanent,omitempty"` // failure requires human input
	Skipped   bool       `json:"skipped,omitempty"`   // predecessor on the same resource failed
	Summary   string     `json:"summary"`
	Error     string     `json:"error,omitempty"`
}

// ThreadState is the per-thread pipeline state.
type ThreadState string

const (
	StateFetched         ThreadState = "fetched"
	StateClassifying     ThreadState = "classifying"
	StateDispatching     ThreadState = "dispatching"
	StateResolving       ThreadState = "resolving"
	StateSummarized      ThreadState = "summarized"
	StatePartiallyFailed ThreadState = "partially_failed"
)

// ThreadSummary is the per-thread output of one sync pass.
type ThreadSummary struct {
	Thread     platform.Thread `json:"thread"`
	State      ThreadState     `json:"state"`
	Results    []ActionResult  `json:"results"`
	Resolved   []string        `json:"resolved,omitempty"`   // comment ids resolved this pass
	Unresolved []string        `json:"unresolved,omitempty"` // comment ids left for the next pass
	DryRun     bool            `json:"dryRun,omitempty"`
}

// Failed reports whether any intent on the thread failed.
func (s ThreadSummary) Failed() bool {
	return s.State == StatePartiallyFailed
}

// Selector names which threads a sync pass covers.
type Selector struct {
	Kind   platform.Kind // empty: all open threads
	Number int
}

// All reports whether the selector covers every open thread.
func (s Selector) All() bool {
	return s.Kind == ""
}
