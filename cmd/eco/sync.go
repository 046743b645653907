package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecohq/eco/internal/config"
	"github.com/ecohq/eco/internal/llm"
	log "github.com/ecohq/eco/internal/logging"
	"github.com/ecohq/eco/internal/platform"
	"github.com/ecohq/eco/internal/runner"
	"github.com/ecohq/eco/internal/syncer"
	"github.com/ecohq/eco/internal/worker"
)

var (
	syncIssue  int
	syncPR     int
	syncDryRun bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Turn unresolved comments into actions",
	Long:  "Fetch unresolved comments on open issues and PRs, classify each into an intent, dispatch the resulting actions, and resolve what succeeded.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncIssue > 0 && syncPR > 0 {
			return fmt.Errorf("--issue and --pr are mutually exclusive")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.GitHubRepo == "" || cfg.GitHubToken == "" {
			return fmt.Errorf("github.repo and github.token must be configured")
		}

		ctx := cmd.Context()
		retry := platform.DefaultRetryConfig()
		retry.MaxRetries = cfg.RetryAttempts
		retry.InitialBackoff = cfg.RetryBackoff
		gh, err := platform.NewGitHub(ctx, cfg.GitHubRepo, cfg.GitHubToken, retry)
		if err != nil {
			return err
		}

		gen, err := newGenerator(cfg, "issue-body-edit", "sync")
		if err != nil {
			return err
		}

		rt := newRouter(cfg, "sync")
		run := runner.NewEngine(rt, newInvoker(cfg, gen), cfg,
			runner.WithTokenBudget(cfg.TokenBudget),
			runner.WithStore(runner.NewStore(cfg.StatePath("runs.jsonl"))),
		)

		engine := syncer.NewEngine(rt, gh,
			syncer.NewHistory(cfg.StatePath("sync_history.jsonl")),
			syncer.WithGenerator(gen),
			syncer.WithCodeRunner(run),
			syncer.WithPoolSize(cfg.SyncPoolSize),
		)

		summaries, err := engine.Sync(ctx, selector(), syncDryRun)
		if err != nil {
			return err
		}

		failed := 0
		for _, s := range summaries {
			printThreadSummary(s)
			if s.Failed() {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d threads partially failed", failed, len(summaries))
		}
		return nil
	},
}

func selector() syncer.Selector {
	switch {
	case syncIssue > 0:
		return syncer.Selector{Kind: platform.KindIssue, Number: syncIssue}
	case syncPR > 0:
		return syncer.Selector{Kind: platform.KindReview, Number: syncPR}
	default:
		return syncer.Selector{}
	}
}

// newInvoker prefers remote A2A workers when endpoints are configured and
// falls back to in-process LLM personas.
func newInvoker(cfg *config.Config, gen llm.Generator) worker.Invoker {
	if len(cfg.WorkerEndpoints) > 0 {
		log.Infof("using %d remote A2A worker endpoints", len(cfg.WorkerEndpoints))
		return worker.NewA2AInvoker(cfg.WorkerEndpoints, cfg.WorkerAPIKey)
	}
	return worker.NewLLMInvoker(gen, cfg.AgentsDir)
}

func printThreadSummary(s syncer.ThreadSummary) {
	fmt.Printf("%s #%d [%s]", s.Thread.Kind, s.Thread.Number, s.State)
	if s.DryRun {
		fmt.Print(" (dry run)")
	}
	fmt.Println()
	for _, res := range s.Results {
		marker := "ok"
		switch {
		case res.Skipped:
			marker = "skip"
		case !res.Success:
			marker = "FAIL"
		}
		detail := res.Summary
		if res.Error != "" {
			detail = res.Error
		}
		fmt.Printf("  [%s] %s: %s\n", marker, res.Intent, detail)
	}
	if len(s.Resolved) > 0 {
		fmt.Printf("  resolved: %s\n", strings.Join(s.Resolved, ", "))
	}
	if len(s.Unresolved) > 0 {
		fmt.Printf("  unresolved: %s\n", strings.Join(s.Unresolved, ", "))
	}
}

func init() {
	syncCmd.Flags().IntVar(&syncIssue, "issue", 0, "sync a single issue")
	syncCmd.Flags().IntVar(&syncPR, "pr", 0, "sync a single pull request")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report planned actions without mutating anything")
}
