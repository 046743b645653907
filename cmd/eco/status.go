package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecohq/eco/internal/config"
	"github.com/ecohq/eco/internal/runner"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent task runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		runs, err := runner.NewStore(cfg.StatePath("runs.jsonl")).ReadAll()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		if statusLimit > 0 && len(runs) > statusLimit {
			runs = runs[len(runs)-statusLimit:]
		}

		fmt.Printf("%-36s %-12s %-12s %8s  %s\n", "RUN", "TYPE", "STATUS", "TOKENS", "AGENTS")
		for _, run := range runs {
			fmt.Printf("%-36s %-12s %-12s %8d  %s\n",
				run.RunID, run.TaskType, run.Status, run.TokenUsage,
				strings.Join(run.AgentSequence, " -> "))
			if run.Error != "" {
				fmt.Printf("  error: %s\n", run.Error)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "show at most this many recent runs")
}
