package syncer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ecohq/eco/internal/llm"
	log "github.com/ecohq/eco/internal/logging"
	"github.com/ecohq/eco/internal/platform"
	"github.com/ecohq/eco/internal/router"
)

const defaultPoolSize = 4

// Engine drives one sync pass over a set of threads.
type Engine struct {
	router    *router.Router
	platform  platform.Platform
	history   *History
	registry  *Registry
	generator llm.Generator
	runner    CodeRunner
	poolSize  int
}

// Option configures the sync engine.
type Option func(*Engine)

// WithGenerator sets the LLM used for replies and body rewrites.
func WithGenerator(g llm.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithCodeRunner sets the executor that code-change intents are queued on.
func WithCodeRunner(r CodeRunner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithRegistry sets the status registry updated as threads move through
// the pipeline.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithPoolSize bounds the number of threads processed concurrently.
func WithPoolSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.poolSize = n
		}
	}
}

// NewEngine creates a sync engine over the given router, platform, and
// processed-comment history.
func NewEngine(rt *router.Router, p platform.Platform, h *History, opts ...Option) *Engine {
	e := &Engine{
		router:   rt,
		platform: p,
		history:  h,
		registry: NewRegistry(),
		poolSize: defaultPoolSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's status registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Sync runs one pass over the threads named by sel. Threads are processed
// concurrently through a bounded pool; each runs the full pipeline of
// fetch, classify, dispatch, resolve, summarize. A per-thread failure is
// reported in its summary and never aborts the other threads.
func (e *Engine) Sync(ctx context.Context, sel Selector, dryRun bool) ([]ThreadSummary, error) {
	threads, err := e.selectThreads(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		log.Infof("no open threads matched the selector")
		return nil, nil
	}

	processed, err := e.history.Processed()
	if err != nil {
		return nil, fmt.Errorf("failed to load sync history: %w", err)
	}

	summaries := make([]ThreadSummary, len(threads))
	sem := make(chan struct{}, e.poolSize)
	var wg sync.WaitGroup
	for i, t := range threads {
		wg.Add(1)
		go func(i int, t platform.Thread) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			summaries[i] = e.syncThread(ctx, t, processed, dryRun)
		}(i, t)
	}
	wg.Wait()
	return summaries, nil
}

func (e *Engine) selectThreads(ctx context.Context, sel Selector) ([]platform.Thread, error) {
	if sel.All() {
		return e.platform.ListOpenThreads(ctx)
	}
	t, err := e.platform.GetThread(ctx, sel.Kind, sel.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s #%d: %w", sel.Kind, sel.Number, err)
	}
	return []platform.Thread{t}, nil
}

// syncThread runs the full pipeline for one thread.
func (e *Engine) syncThread(ctx context.Context, t platform.Thread, processed map[string]bool, dryRun bool) ThreadSummary {
	runID := uuid.NewString()
	threadName := fmt.Sprintf("%s #%d", t.Kind, t.Number)
	summary := ThreadSummary{Thread: t, State: StateFetched, DryRun: dryRun}
	e.registry.Set(runID, threadName, StateFetched)

	comments, err := e.platform.ListUnresolvedComments(ctx, t)
	if err != nil {
		log.Errorf("%s: failed to list comments: %v", threadName, err)
		summary.State = StatePartiallyFailed
		summary.Results = []ActionResult{{
			Success: false,
			Summary: "failed to fetch comments",
			Error:   err.Error(),
		}}
		e.registry.Set(runID, threadName, StatePartiallyFailed)
		return summary
	}

	// Idempotence across passes: drop comments whose intent already
	// succeeded on a previous pass.
	fresh := comments[:0:0]
	for _, c := range comments {
		if processed[c.ID] {
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		log.Infof("%s: no unprocessed comments", threadName)
		summary.State = StateSummarized
		e.registry.Set(runID, threadName, StateSummarized)
		return summary
	}

	e.registry.Set(runID, threadName, StateClassifying)
	intents := make([]Intent, 0, len(fresh))
	for _, c := range fresh {
		intents = append(intents, e.classifyComment(ctx, t, c))
	}

	e.registry.Set(runID, threadName, StateDispatching)
	results := e.dispatchAll(ctx, intents, dryRun)

	e.registry.Set(runID, threadName, StateResolving)
	summary.Results = results
	summary.Resolved, summary.Unresolved = e.resolveSucceeded(ctx, intents, results, dryRun)

	if !dryRun {
		for _, res := range results {
			if res.Skipped {
				continue
			}
			if err := e.history.Record(res); err != nil {
				log.Errorf("%s: failed to record history for %s: %v", threadName, res.CommentID, err)
			}
		}
	}

	failed := false
	for _, res := range results {
		if !res.Success && !res.Skipped {
			failed = true
			break
		}
	}

	if err := e.postSummary(ctx, t, results, dryRun); err != nil {
		log.Errorf("%s: failed to post summary: %v", threadName, err)
		failed = true
	}

	if failed {
		summary.State = StatePartiallyFailed
	} else {
		summary.State = StateSummarized
	}
	e.registry.Set(runID, threadName, summary.State)
	return summary
}

// dispatchAll groups intents by the resource they touch. Groups run
// concurrently; within a group, intents run in comment creation order, and
// a failure skips the rest of the group so later edits never apply on top
// of a missing earlier one.
func (e *Engine) dispatchAll(ctx context.Context, intents []Intent, dryRun bool) []ActionResult {
	groups := map[string][]Intent{}
	for _, in := range intents {
		key := in.ResourceKey()
		groups[key] = append(groups[key], in)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make([]ActionResult, 0, len(intents))
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Comment.CreatedAt.Before(group[j].Comment.CreatedAt)
		})
		wg.Add(1)
		go func(group []Intent) {
			defer wg.Done()
			groupResults := make([]ActionResult, 0, len(group))
			broken := false
			for _, in := range group {
				if broken {
					groupResults = append(groupResults, ActionResult{
						CommentID: in.Comment.ID,
						Intent:    in.Kind,
						Skipped:   true,
						Summary:   "skipped: earlier action on the same resource failed",
					})
					continue
				}
				res := e.dispatch(ctx, in, dryRun)
				if !res.Success {
					broken = true
				}
				groupResults = append(groupResults, res)
			}
			mu.Lock()
			results = append(results, groupResults...)
			mu.Unlock()
		}(group)
	}
	wg.Wait()

	// Deterministic output order regardless of group scheduling.
	byID := map[string]ActionResult{}
	for _, res := range results {
		byID[res.CommentID] = res
	}
	ordered := make([]ActionResult, 0, len(intents))
	for _, in := range intents {
		ordered = append(ordered, byID[in.Comment.ID])
	}
	return ordered
}

// resolveSucceeded marks the comments behind successful intents as
// resolved. Resolution failures are logged but do not fail the thread:
// the comment is simply reported unresolved and retried next pass.
func (e *Engine) resolveSucceeded(ctx context.Context, intents []Intent, results []ActionResult, dryRun bool) (resolved, unresolved []string) {
	byID := map[string]platform.Comment{}
	for _, in := range intents {
		byID[in.Comment.ID] = in.Comment
	}
	for _, res := range results {
		if !res.Success || res.Skipped {
			unresolved = append(unresolved, res.CommentID)
			continue
		}
		if dryRun {
			resolved = append(resolved, res.CommentID)
			continue
		}
		if err := e.platform.ResolveThread(ctx, byID[res.CommentID]); err != nil {
			log.Warnf("failed to resolve comment %s: %v", res.CommentID, err)
			unresolved = append(unresolved, res.CommentID)
			continue
		}
		resolved = append(resolved, res.CommentID)
	}
	return resolved, unresolved
}

// postSummary posts the single per-pass summary comment for a thread.
func (e *Engine) postSummary(ctx context.Context, t platform.Thread, results []ActionResult, dryRun bool) error {
	if dryRun || len(results) == 0 {
		return nil
	}
	return e.platform.PostComment(ctx, t, formatSummary(results))
}

func formatSummary(results []ActionResult) string {
	var succeeded, failed, skipped int
	var b strings.Builder
	b.WriteString("## Sync summary\n\n")
	for _, res := range results {
		switch {
		case res.Skipped:
			skipped++
			fmt.Fprintf(&b, "- ⏭ %s: %s\n", res.Intent, res.Summary)
		case res.Success:
			succeeded++
			fmt.Fprintf(&b, "- ✅ %s: %s\n", res.Intent, res.Summary)
		default:
			failed++
			fmt.Fprintf(&b, "- ❌ %s: %s", res.Intent, res.Error)
			if res.Permanent {
				b.WriteString(" (needs human input)")
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\n%d succeeded, %d failed, %d skipped.", succeeded, failed, skipped)
	return b.String()
}
