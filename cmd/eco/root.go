package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ecohq/eco/internal/config"
	"github.com/ecohq/eco/internal/cost"
	"github.com/ecohq/eco/internal/llm"
	log "github.com/ecohq/eco/internal/logging"
	"github.com/ecohq/eco/internal/router"
)

var rootCmd = &cobra.Command{
	Use:          "eco",
	Short:        "Route, sync, and judge multi-agent work",
	Long:         "eco routes tasks to agent sequences, turns review comments into actions, and scores agent output against rubrics.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(routeCmd, syncCmd, judgeCmd, costCmd, statusCmd)
}

// costRecorder appends token usage to the usage log. Recording is best
// effort: a failed write is logged and the LLM call still succeeds.
type costRecorder struct {
	store   *cost.Store
	command string
}

func (r *costRecorder) RecordUsage(model string, inputTokens, outputTokens int) {
	rec := cost.UsageRecord{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Command:      r.command,
	}
	if err := r.store.Append(rec); err != nil {
		log.Warnf("failed to record token usage: %v", err)
	}
}

// newGenerator builds an LLM client for a command, selecting the model by
// role when no explicit model is configured, with usage accounting wired in.
func newGenerator(cfg *config.Config, role, command string) (*llm.Client, error) {
	// Copy so per-role model selection never leaks into other commands
	// sharing the same config.
	c := *cfg
	if c.LLMModel == "" {
		c.LLMModel = c.SelectModel(role)
	}
	client, err := llm.NewClient(&c)
	if err != nil {
		return nil, err
	}
	recorder := &costRecorder{store: cost.NewStore(cfg.StatePath("usage.jsonl")), command: command}
	return client.WithRecorder(recorder), nil
}

// newRouter builds the routing engine. The classifier stage is enabled only
// when an LLM is configured; without it, unmatched tasks escalate directly.
func newRouter(cfg *config.Config, command string) *router.Router {
	opts := []router.Option{
		router.WithDecisionLog(router.NewDecisionLog(cfg.StatePath("decisions.jsonl"))),
		router.WithMinConfidence(cfg.ClassifierConfidence),
	}
	if cfg.LLMAPIKey != "" {
		gen, err := newGenerator(cfg, "comment-classification", command)
		if err != nil {
			log.Warnf("classifier disabled, could not initialize LLM: %v", err)
		} else {
			opts = append(opts, router.WithClassifier(router.NewClassifier(gen)))
		}
	}
	return router.New(opts...)
}
