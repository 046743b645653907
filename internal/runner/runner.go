// Package runner turns routed tasks into executed agent runs: plan a run
// from a routing decision, walk its agent sequence through an invoker, and
// persist every run to an append-only log.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	log "github.com/ecohq/eco/internal/logging"
	"github.com/ecohq/eco/internal/router"
	"github.com/ecohq/eco/internal/worker"
)

// RunState is the lifecycle state of a task run.
type RunState string

const (
	RunQueued     RunState = "queued"
	RunRunning    RunState = "running"
	RunCompleted  RunState = "completed"
	RunFailed     RunState = "failed"
	RunEscalated  RunState = "escalated"   // routing asked for human input
	RunOverBudget RunState = "over_budget" // token budget exhausted mid-run
)

// TaskRun is one planned or executed unit of routed work.
type TaskRun struct {
	RunID         string          `json:"runId"`
	Task          string          `json:"task"`
	TaskType      router.TaskType `json:"taskType"`
	AgentSequence []string        `json:"agentSequence"`
	Status        RunState        `json:"status"`
	Model         string          `json:"model"`
	StartedAt     time.Time       `json:"startedAt,omitempty"`
	EndedAt       time.Time       `json:"endedAt,omitempty"`
	TokenUsage    int             `json:"tokenUsage"`
	Error         string          `json:"error,omitempty"`
	DryRun        bool            `json:"dryRun,omitempty"`
}

// ModelSelector picks the model for a given role.
type ModelSelector interface {
	SelectModel(role string) string
}

// Engine plans and executes task runs.
type Engine struct {
	router      *router.Router
	invoker     worker.Invoker
	models      ModelSelector
	store       *Store
	tokenBudget int // 0 means unlimited

	mu     sync.RWMutex
	active map[string]TaskRun
}

// Option configures the runner engine.
type Option func(*Engine)

// WithTokenBudget caps the total tokens one run may consume.
func WithTokenBudget(n int) Option {
	return func(e *Engine) { e.tokenBudget = n }
}

// WithStore sets the persistent run log.
func WithStore(s *Store) Option {
	return func(e *Engine) { e.store = s }
}

// NewEngine creates a runner over the given router, invoker, and model
// selector.
func NewEngine(rt *router.Router, inv worker.Invoker, models ModelSelector, opts ...Option) *Engine {
	e := &Engine{
		router:  rt,
		invoker: inv,
		models:  models,
		active:  map[string]TaskRun{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan routes a task and builds the run that would execute it, without
// invoking any agent. An escalated decision produces an escalated run with
// an empty agent sequence.
func (e *Engine) Plan(ctx context.Context, task string, sig router.Signals) TaskRun {
	decision := e.router.Route(ctx, task, sig)
	return e.planFromDecision(task, decision)
}

// Queue plans a run from an existing routing decision and executes it in
// the background, returning the run id immediately.
func (e *Engine) Queue(ctx context.Context, task string, decision router.RoutingDecision) (string, error) {
	run := e.planFromDecision(task, decision)
	if run.Status == RunEscalated {
		return "", fmt.Errorf("task needs human input before it can run: %s", decision.Escalation)
	}
	e.setActive(run)

	go func() {
		// Detach from the caller's deadline: the queued run outlives the
		// sync pass that created it.
		if _, err := e.Execute(context.WithoutCancel(ctx), run); err != nil {
			log.Errorf("run %s failed: %v", run.RunID, err)
		}
	}()
	return run.RunID, nil
}

func (e *Engine) planFromDecision(task string, decision router.RoutingDecision) TaskRun {
	run := TaskRun{
		RunID:         uuid.NewString(),
		Task:          task,
		TaskType:      decision.TaskType,
		AgentSequence: decision.AgentSequence,
		Model:         e.models.SelectModel(roleForTaskType(decision.TaskType)),
		Status:        RunQueued,
	}
	if decision.Escalation != "" {
		run.Status = RunEscalated
		run.Error = decision.Escalation
	}
	return run
}

// Execute walks the run's agent sequence in order, feeding each agent the
// task plus the previous agent's output. The run stops at the first agent
// failure or when the token budget is exhausted.
func (e *Engine) Execute(ctx context.Context, run TaskRun) (TaskRun, error) {
	run.Status = RunRunning
	run.StartedAt = time.Now().UTC()
	e.setActive(run)

	description := run.Task
	var execErr error
	for i, agent := range run.AgentSequence {
		if e.tokenBudget > 0 && run.TokenUsage >= e.tokenBudget {
			run.Status = RunOverBudget
			execErr = fmt.Errorf("token budget of %d exhausted after %d of %d agents",
				e.tokenBudget, i, len(run.AgentSequence))
			break
		}

		log.Infof("run %s: invoking agent %s (%d/%d)", run.RunID, agent, i+1, len(run.AgentSequence))
		result, err := e.invoker.Invoke(ctx, worker.Task{
			RunID:       run.RunID,
			Agent:       agent,
			Description: description,
			TaskType:    string(run.TaskType),
			Sequence:    i,
		})
		if err != nil {
			run.Status = RunFailed
			execErr = fmt.Errorf("agent %s: %w", agent, err)
			break
		}
		run.TokenUsage += result.InputTokens + result.OutputTokens

		// Later agents see the accumulating work, not just the raw task.
		description = fmt.Sprintf("%s\n\nOutput from %s:\n%s", run.Task, agent, result.Output)
	}

	if execErr == nil {
		run.Status = RunCompleted
	} else {
		run.Error = execErr.Error()
	}
	run.EndedAt = time.Now().UTC()
	e.finish(run)
	return run, execErr
}

// ActiveRuns returns runs not yet finished, newest first.
func (e *Engine) ActiveRuns() []TaskRun {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]TaskRun, 0, len(e.active))
	for _, run := range e.active {
		out = append(out, run)
	}
	return out
}

func (e *Engine) setActive(run TaskRun) {
	e.mu.Lock()
	e.active[run.RunID] = run
	e.mu.Unlock()
}

func (e *Engine) finish(run TaskRun) {
	e.mu.Lock()
	delete(e.active, run.RunID)
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.Append(run); err != nil {
			log.Errorf("failed to persist run %s: %v", run.RunID, err)
		}
	}
}

// roleForTaskType maps a routed task type to the model-selection role used
// for the agents executing it.
func roleForTaskType(t router.TaskType) string {
	switch t {
	case router.TypeReview:
		return "review"
	case router.TypePerformance:
		return "performance-analysis"
	case router.TypeDesign:
		return "design"
	case router.TypeArchitecture:
		return "architecture"
	case router.TypeBackend:
		return "backend"
	case router.TypeFrontend:
		return "frontend"
	case router.TypeML:
		return "ml"
	case router.TypeInfra:
		return "infrastructure"
	case router.TypeIntegration:
		return "integration"
	case router.TypeDocs:
		return "issue-body-edit"
	default:
		return "code-change"
	}
}
