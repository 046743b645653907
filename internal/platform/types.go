// Package platform abstracts the collaboration host (issues, change
// requests, comments) behind a capability interface so the sync engine can
// be tested against a mock.
package platform

import (
	"context"
	"time"
)

// Kind distinguishes issue threads from change-request (PR) threads.
type Kind string

const (
	KindIssue  Kind = "issue"
	KindReview Kind = "review"
)

// Thread is a comment-bearing issue or change request. It is fetched fresh
// each sync pass and never mutated in-process.
type Thread struct {
	Kind   Kind   `json:"kind"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"` // open, closed, merged
}

// Comment is one comment on a thread. ThreadNodeID is set for review-thread
// comments and names the resolvable thread that owns them.
type Comment struct {
	ID           string    `json:"id"`
	ThreadKind   Kind      `json:"threadKind"`
	ThreadNumber int       `json:"threadNumber"`
	ThreadNodeID string    `json:"threadNodeId,omitempty"`
	Author       string    `json:"author"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
	Resolved     bool      `json:"resolved"`
	Path         string    `json:"path,omitempty"`
}

// Platform is the capability interface over the collaboration host. Every
// method call is a suspension point with the caller's context governing
// timeouts and cancellation.
type Platform interface {
	// ListOpenThreads lists all open issues and change requests.
	ListOpenThreads(ctx context.Context) ([]Thread, error)
	// GetThread fetches a single thread by kind and number.
	GetThread(ctx context.Context, kind Kind, number int) (Thread, error)
	// ListUnresolvedComments returns the thread's comments that have not
	// been resolved, ordered by creation time.
	ListUnresolvedComments(ctx context.Context, t Thread) ([]Comment, error)
	// PostComment posts one comment on a thread.
	PostComment(ctx context.Context, t Thread, body string) error
	// ReplyToReviewComment replies inside the review thread owning c.
	// Comments without a review thread fall back to a plain comment.
	ReplyToReviewComment(ctx context.Context, c Comment, body string) error
	// EditBody replaces the thread's description body.
	EditBody(ctx context.Context, t Thread, body string) error
	// CreateIssue opens a new issue and returns its number.
	CreateIssue(ctx context.Context, title, body string) (int, error)
	// ResolveThread marks the review thread owning c as resolved. Resolving
	// an already-resolved thread is a no-op, and comments without a
	// resolvable thread are ignored.
	ResolveThread(ctx context.Context, c Comment) error
}
