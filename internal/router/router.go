package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/ecohq/eco/internal/logging"
)

// Confidence values for the deterministic stages. They are fixed so that
// identical input always yields an identical decision.
const (
	ruleConfidence    = 100
	keywordConfidence = 90
)

// escalationMessage is surfaced when nothing matched with enough confidence.
const escalationMessage = "Unable to route this task. Add a label (bug, enhancement, documentation, ...) or restate the goal in one sentence."

// Router composes rule table, keyword matcher, classifier adapter, and
// escalation. It is pure and stateless apart from the append-only decision
// log, so it is safe to call concurrently.
type Router struct {
	classifier    *Classifier
	minConfidence int
	decisions     *DecisionLog
}

// Option configures a Router.
type Option func(*Router)

// WithClassifier enables the LLM fallback stage.
func WithClassifier(c *Classifier) Option {
	return func(r *Router) { r.classifier = c }
}

// WithDecisionLog records every decision to an append-only log.
func WithDecisionLog(dl *DecisionLog) Option {
	return func(r *Router) { r.decisions = dl }
}

// WithMinConfidence overrides the classifier acceptance threshold.
func WithMinConfidence(min int) Option {
	return func(r *Router) {
		if min > 0 {
			r.minConfidence = min
		}
	}
}

// New creates a router. Without a classifier option the LLM stage is skipped
// and unmatched tasks escalate directly.
func New(opts ...Option) *Router {
	r := &Router{minConfidence: 80}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route maps a task to a routing decision. It never fails: the worst case is
// task type unclear with an empty agent sequence and an escalation message.
func (r *Router) Route(ctx context.Context, task string, sig Signals) RoutingDecision {
	decision := r.route(ctx, task, sig)
	decision.Files = extractFiles(task)
	decision.Timestamp = time.Now().UTC()

	if r.decisions != nil {
		if err := r.decisions.Append(decision); err != nil {
			log.Warnf("failed to record routing decision: %v", err)
		}
	}
	return decision
}

func (r *Router) route(ctx context.Context, task string, sig Signals) RoutingDecision {
	if strings.TrimSpace(task) == "" {
		return escalate("empty task text")
	}

	// Stage 1: structural rule table, first match wins.
	for i, rl := range ruleTable {
		if rl.matches(sig) {
			return decisionFor(rl.target, ruleConfidence,
				fmt.Sprintf("rule[%d] %s", i, rl.name))
		}
	}

	// Stage 2: ordered keyword table over the task text.
	for _, kw := range keywordTable {
		if kw.pattern.MatchString(task) {
			return decisionFor(kw.target, keywordConfidence,
				fmt.Sprintf("keyword %s -> %s", kw.pattern.String(), kw.target))
		}
	}

	// Stage 3: confidence-gated classifier.
	if r.classifier == nil {
		return escalate("no rule or keyword matched; classifier unavailable")
	}

	cls := r.classifier.Classify(ctx, task)
	if TaskType(cls.Category) == TypeUnclear || cls.Confidence < r.minConfidence {
		d := escalate(fmt.Sprintf("classifier returned %s at confidence %d (threshold %d)",
			cls.Category, cls.Confidence, r.minConfidence))
		d.Confidence = cls.Confidence
		return d
	}

	d := decisionFor(TaskType(cls.Category), cls.Confidence,
		fmt.Sprintf("classifier: %s", cls.Reasoning))
	return d
}

func decisionFor(t TaskType, confidence int, signal string) RoutingDecision {
	return RoutingDecision{
		TaskType:      t,
		AgentSequence: AgentSequence(t),
		Priority:      Priority(t),
		Confidence:    confidence,
		MatchedSignal: signal,
	}
}

// escalate is the terminal, non-retrying state for unroutable tasks.
func escalate(signal string) RoutingDecision {
	return RoutingDecision{
		TaskType:      TypeUnclear,
		AgentSequence: []string{},
		Priority:      Priority(TypeUnclear),
		Confidence:    0,
		MatchedSignal: signal,
		Escalation:    escalationMessage,
	}
}
