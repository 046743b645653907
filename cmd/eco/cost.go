package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecohq/eco/internal/config"
	"github.com/ecohq/eco/internal/cost"
)

var (
	costSince   string
	costUntil   string
	costCommand string
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Summarize token usage and estimated spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store := cost.NewStore(cfg.StatePath("usage.jsonl"))
		records, err := store.ReadFiltered(costSince, costUntil, costCommand)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No usage recorded.")
			return nil
		}

		var totalIn, totalOut int
		var totalCost float64
		fmt.Printf("%-12s %10s %10s %10s  %s\n", "DATE", "INPUT", "OUTPUT", "COST", "MODELS")
		for _, day := range cost.SummarizeByDay(records) {
			fmt.Printf("%-12s %10d %10d %9.4f$  %s\n",
				day.Date, day.TotalInputTokens, day.TotalOutputTokens,
				day.EstimatedCostUSD, strings.Join(day.Models, ","))
			totalIn += day.TotalInputTokens
			totalOut += day.TotalOutputTokens
			totalCost += day.EstimatedCostUSD
		}
		fmt.Printf("%-12s %10d %10d %9.4f$\n", "TOTAL", totalIn, totalOut, totalCost)
		return nil
	},
}

func init() {
	costCmd.Flags().StringVar(&costSince, "since", "", "start of the window (RFC3339 or YYYY-MM-DD)")
	costCmd.Flags().StringVar(&costUntil, "until", "", "end of the window (RFC3339 or YYYY-MM-DD)")
	costCmd.Flags().StringVar(&costCommand, "command", "", "only usage from this command")
}
