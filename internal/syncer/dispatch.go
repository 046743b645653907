package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecohq/eco/internal/platform"
	"github.com/ecohq/eco/internal/router"
)

// CodeRunner queues routed code work for asynchronous execution and
// returns the run id of the queued task.
type CodeRunner interface {
	Queue(ctx context.Context, task string, decision router.RoutingDecision) (string, error)
}

const maxIssueTitleLen = 80

// dispatch executes one intent against the platform. Dry runs short-circuit
// before any mutating call and report the action that would have been taken.
func (e *Engine) dispatch(ctx context.Context, in Intent, dryRun bool) ActionResult {
	res := ActionResult{CommentID: in.Comment.ID, Intent: in.Kind}

	if dryRun {
		res.Success = true
		res.Summary = dryRunSummary(in)
		return res
	}

	// Once a mutating action starts it must run to completion; a user
	// cancelling the sync pass must not leave the thread half-mutated.
	ctx = context.WithoutCancel(ctx)

	var err error
	switch in.Kind {
	case IntentEditBody, IntentUpdateDescription:
		err = e.editBody(ctx, in, &res)
	case IntentReply:
		err = e.reply(ctx, in, &res)
	case IntentClarify:
		err = e.clarify(ctx, in, &res)
	case IntentCreateIssue:
		err = e.createIssue(ctx, in, &res)
	case IntentChangeCode:
		err = e.queueCodeChange(ctx, in, &res)
	default:
		err = fmt.Errorf("unknown intent kind %q", in.Kind)
	}

	if err != nil {
		res.Success = false
		res.Permanent = platform.IsPermanent(err)
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

func (e *Engine) editBody(ctx context.Context, in Intent, res *ActionResult) error {
	if e.generator == nil {
		return fmt.Errorf("no LLM configured for %s", in.Kind)
	}
	body, err := e.generator.Generate(ctx, buildEditPrompt(in))
	if err != nil {
		return fmt.Errorf("failed to draft updated body: %w", err)
	}
	if err := e.platform.EditBody(ctx, in.Thread, strings.TrimSpace(body)); err != nil {
		return err
	}
	res.Summary = fmt.Sprintf("updated %s #%d body", in.Thread.Kind, in.Thread.Number)
	return nil
}

func (e *Engine) reply(ctx context.Context, in Intent, res *ActionResult) error {
	if e.generator == nil {
		return fmt.Errorf("no LLM configured for %s", in.Kind)
	}
	reply, err := e.generator.Generate(ctx, buildReplyPrompt(in))
	if err != nil {
		return fmt.Errorf("failed to draft reply: %w", err)
	}
	if err := e.platform.ReplyToReviewComment(ctx, in.Comment, strings.TrimSpace(reply)); err != nil {
		return err
	}
	res.Summary = fmt.Sprintf("replied to @%s", in.Comment.Author)
	return nil
}

func (e *Engine) clarify(ctx context.Context, in Intent, res *ActionResult) error {
	body := fmt.Sprintf("@%s I couldn't determine a concrete action from this comment. "+
		"Could you clarify what you'd like done?", in.Comment.Author)
	if err := e.platform.PostComment(ctx, in.Thread, body); err != nil {
		return err
	}
	res.Summary = fmt.Sprintf("asked @%s for clarification", in.Comment.Author)
	return nil
}

func (e *Engine) createIssue(ctx context.Context, in Intent, res *ActionResult) error {
	title := issueTitle(in.Comment.Body)
	body := fmt.Sprintf("Requested by @%s in %s #%d:\n\n%s",
		in.Comment.Author, in.Thread.Kind, in.Thread.Number, in.Comment.Body)
	number, err := e.platform.CreateIssue(ctx, title, body)
	if err != nil {
		return err
	}
	res.Summary = fmt.Sprintf("created issue #%d", number)
	return nil
}

func (e *Engine) queueCodeChange(ctx context.Context, in Intent, res *ActionResult) error {
	if e.runner == nil {
		return fmt.Errorf("code execution is not configured")
	}
	runID, err := e.runner.Queue(ctx, in.Comment.Body, in.Decision)
	if err != nil {
		return fmt.Errorf("failed to queue code change: %w", err)
	}
	res.Summary = fmt.Sprintf("queued code change, run %s (%s)", runID, in.Decision.TaskType)
	return nil
}

// issueTitle derives an issue title from the first line of a comment,
// truncated to a readable length.
func issueTitle(body string) string {
	line := body
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		line = "Follow-up from comment"
	}
	if len(line) > maxIssueTitleLen {
		line = strings.TrimSpace(line[:maxIssueTitleLen-3]) + "..."
	}
	return line
}

func dryRunSummary(in Intent) string {
	switch in.Kind {
	case IntentEditBody, IntentUpdateDescription:
		return fmt.Sprintf("[dry-run] Would update %s #%d body", in.Thread.Kind, in.Thread.Number)
	case IntentReply:
		return fmt.Sprintf("[dry-run] Would reply to @%s", in.Comment.Author)
	case IntentClarify:
		return fmt.Sprintf("[dry-run] Would ask @%s for clarification", in.Comment.Author)
	case IntentCreateIssue:
		return fmt.Sprintf("[dry-run] Would create issue %q", issueTitle(in.Comment.Body))
	case IntentChangeCode:
		return fmt.Sprintf("[dry-run] Would queue code change (%s)", in.Decision.TaskType)
	default:
		return "[dry-run] Would do nothing"
	}
}

func buildEditPrompt(in Intent) string {
	return fmt.Sprintf(`You maintain the description of %s #%d, titled %q.

A reviewer asked for this change:
%s

Write the complete replacement body in Markdown. Output only the body, no preamble.`,
		in.Thread.Kind, in.Thread.Number, in.Thread.Title, in.Comment.Body)
}

func buildReplyPrompt(in Intent) string {
	return fmt.Sprintf(`You respond to comments on %s #%d, titled %q.

@%s wrote:
%s

Write a short, direct reply. Output only the reply text.`,
		in.Thread.Kind, in.Thread.Number, in.Thread.Title, in.Comment.Author, in.Comment.Body)
}
