// Package worker invokes agents against a task, either in-process through
// an LLM with a persona prompt or remotely over the A2A protocol.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecohq/eco/internal/llm"
	log "github.com/ecohq/eco/internal/logging"
)

// Task is one unit of agent work inside a run.
type Task struct {
	RunID       string `json:"runId"`
	Agent       string `json:"agent"`
	Description string `json:"description"`
	TaskType    string `json:"taskType"`
	Sequence    int    `json:"sequence"` // position in the agent sequence
}

// Result is the output of one agent invocation.
type Result struct {
	Output       string `json:"output"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
}

// Invoker executes one agent task.
type Invoker interface {
	Invoke(ctx context.Context, task Task) (Result, error)
}

// LLMInvoker runs agents in-process: each agent is a persona prompt loaded
// from <agentsDir>/<name>.md, applied to the task through the LLM.
type LLMInvoker struct {
	generator llm.Generator
	agentsDir string
}

// NewLLMInvoker creates an in-process invoker loading personas from dir.
func NewLLMInvoker(g llm.Generator, dir string) *LLMInvoker {
	return &LLMInvoker{generator: g, agentsDir: dir}
}

func (v *LLMInvoker) Invoke(ctx context.Context, task Task) (Result, error) {
	persona := v.loadPersona(task.Agent)
	prompt := fmt.Sprintf(`%s

Task type: %s
Task:
%s

Carry out your part of this task and report what you did and what remains.`,
		persona, task.TaskType, task.Description)

	output, err := v.generator.Generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("agent %s failed: %w", task.Agent, err)
	}
	return Result{
		Output:       output,
		InputTokens:  estimateTokens(prompt),
		OutputTokens: estimateTokens(output),
	}, nil
}

// loadPersona reads the agent's persona file, falling back to a generic
// persona when the file is missing.
func (v *LLMInvoker) loadPersona(agent string) string {
	path := filepath.Join(v.agentsDir, agent+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debugf("no persona file for agent %s, using default: %v", agent, err)
		return fmt.Sprintf("You are %s, a senior software engineer.", agent)
	}
	return strings.TrimSpace(string(data))
}

func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
