package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecohq/eco/internal/config"
	"github.com/ecohq/eco/internal/router"
)

var (
	routeLabels []string
	routeEvent  string
	routeJSON   bool
)

var routeCmd = &cobra.Command{
	Use:   "route [task text]",
	Short: "Route a task to its agent sequence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		rt := newRouter(cfg, "route")
		decision := rt.Route(cmd.Context(), strings.Join(args, " "), router.Signals{
			Labels: routeLabels,
			Event:  routeEvent,
		})

		if routeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(decision)
		}

		fmt.Printf("Task type:  %s\n", decision.TaskType)
		fmt.Printf("Priority:   %s\n", decision.Priority)
		fmt.Printf("Confidence: %d\n", decision.Confidence)
		fmt.Printf("Matched:    %s\n", decision.MatchedSignal)
		if len(decision.AgentSequence) > 0 {
			fmt.Printf("Agents:     %s\n", strings.Join(decision.AgentSequence, " -> "))
		}
		if len(decision.Files) > 0 {
			fmt.Printf("Files:      %s\n", strings.Join(decision.Files, ", "))
		}
		if decision.Escalation != "" {
			fmt.Printf("Escalation: %s\n", decision.Escalation)
		}
		return nil
	},
}

func init() {
	routeCmd.Flags().StringSliceVar(&routeLabels, "label", nil, "issue or PR label (repeatable)")
	routeCmd.Flags().StringVar(&routeEvent, "event", "", "platform event name (e.g. pull_request_review)")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "print the decision as JSON")
}
