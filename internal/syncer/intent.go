package syncer

import (
	"context"
	"regexp"

	"github.com/ecohq/eco/internal/platform"
	"github.com/ecohq/eco/internal/router"
)

// intentPatterns is the deterministic first stage of comment classification,
// evaluated in order. The router handles anything these patterns miss.
var intentPatterns = []struct {
	kind     IntentKind
	patterns []*regexp.Regexp
}{
	{IntentUpdateDescription, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(update|edit|change|modify)\s+(the\s+)?(pr|pull\s+request)\s+(description|body|summary)\b`),
		regexp.MustCompile(`(?i)\bpr\s+description\b`),
	}},
	{IntentEditBody, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(update|edit|change|modify)\s+(the\s+)?(issue|description|body)\b`),
		regexp.MustCompile(`(?i)\b(issue\s+body|issue\s+description)\b`),
	}},
	{IntentCreateIssue, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(create|open|file|new)\s+(an?\s+)?(issue|ticket|bug)\b`),
		regexp.MustCompile(`(?i)\btrack\s+(this|that)\s+(as\s+)?(an?\s+)?(issue|ticket)\b`),
	}},
	{IntentChangeCode, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(fix|implement|add|remove|refactor|change|update)\s+(the\s+)?(code|function|method|class|file|module|test)\b`),
		regexp.MustCompile(`(?i)\b(code\s+change|pull\s+request\s+change)\b`),
		regexp.MustCompile(`(?i)\b(push|commit)\s+(a\s+)?(fix|change|update)\b`),
	}},
	{IntentReply, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(reply|respond|answer)\b`),
		regexp.MustCompile(`(?i)\bthanks\b|\bthank\s+you\b|\blgtm\b`),
		regexp.MustCompile(`^\s*@\w+`),
	}},
	{IntentClarify, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(what|how|why|when|where|which|can\s+you|could\s+you|please\s+explain)\b.*\?`),
		regexp.MustCompile(`(?i)\bi\s+don'?t\s+understand\b`),
		regexp.MustCompile(`(?i)\bclarif(y|ication)\b`),
	}},
}

// classifyComment turns one comment into an intent. Every comment runs
// through the router so the decision is logged and carries the agent
// sequence for code work; the deterministic intent table decides which
// action the dispatcher takes. Comments that match nothing become clarify
// requests rather than guesses.
func (e *Engine) classifyComment(ctx context.Context, t platform.Thread, c platform.Comment) Intent {
	decision := e.router.Route(ctx, c.Body, router.Signals{})

	for _, entry := range intentPatterns {
		for _, p := range entry.patterns {
			if p.MatchString(c.Body) {
				return Intent{Kind: entry.kind, Comment: c, Thread: t, Decision: decision}
			}
		}
	}

	// No pattern hit: fall back on the routing decision. Routable work is
	// treated as a code-change request; an escalated decision asks for
	// clarification instead.
	if decision.TaskType != router.TypeUnclear {
		return Intent{Kind: IntentChangeCode, Comment: c, Thread: t, Decision: decision}
	}
	return Intent{Kind: IntentClarify, Comment: c, Thread: t, Decision: decision}
}
