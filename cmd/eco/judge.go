package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecohq/eco/internal/config"
	"github.com/ecohq/eco/internal/judge"
	"github.com/ecohq/eco/internal/rubric"
)

var (
	judgeResponse  string
	judgeAgainst   string
	judgeReference string
	judgeRubric    string
	judgeEnsemble  int
	judgeJSON      bool
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Score a response against a rubric",
	Long:  "Evaluate a response file against a rubric with an ensemble of debiased passes, or compare two responses pairwise with position-swap debiasing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		response, err := os.ReadFile(judgeResponse)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		rub, err := rubric.Get(judgeRubric)
		if err != nil {
			return err
		}

		gen, err := newGenerator(cfg, "evaluation", "judge")
		if err != nil {
			return err
		}

		opts := []judge.Option{judge.WithPassTimeout(cfg.PassTimeout)}
		if judgeEnsemble > 0 {
			opts = append(opts, judge.WithEnsembleSize(judgeEnsemble))
		} else {
			opts = append(opts, judge.WithEnsembleSize(cfg.EnsembleSize))
		}
		engine := judge.NewEngine(gen, opts...)

		var report judge.Report
		if judgeAgainst != "" {
			against, err := os.ReadFile(judgeAgainst)
			if err != nil {
				return fmt.Errorf("failed to read comparison response: %w", err)
			}
			report, err = engine.PairwiseCompare(cmd.Context(), string(response), string(against), rub)
			if err != nil {
				return err
			}
		} else {
			var reference string
			if judgeReference != "" {
				data, err := os.ReadFile(judgeReference)
				if err != nil {
					return fmt.Errorf("failed to read reference: %w", err)
				}
				reference = string(data)
			}
			report, err = engine.Evaluate(cmd.Context(), string(response), rub, reference)
			if err != nil {
				return err
			}
		}

		if judgeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(rub, report)
		return nil
	},
}

func printReport(rub rubric.Rubric, report judge.Report) {
	if report.Winner != "" {
		fmt.Printf("Winner: %s (stable: %t)\n", report.Winner, report.Stable)
	} else {
		fmt.Printf("Total: %.1f\n", report.Total)
		for _, c := range rub.Criteria {
			res, ok := report.PerCriterion[c.Name]
			if !ok {
				continue
			}
			fmt.Printf("  %-20s %d/%d  %s\n", c.Name, res.Score, c.Max, res.Reasoning)
		}
	}
	fmt.Printf("Confidence: %s\n", report.ConfidenceLabel)
	if len(report.Invalid) > 0 {
		fmt.Printf("No valid score: %s\n", strings.Join(report.Invalid, ", "))
	}
	if report.SafetyFlag {
		fmt.Println("SAFETY FLAG raised: human review required.")
	}
	if report.NeedsReview {
		fmt.Println("Marked for human review.")
	}
}

func init() {
	judgeCmd.Flags().StringVar(&judgeResponse, "response", "", "file containing the response to evaluate")
	judgeCmd.Flags().StringVar(&judgeAgainst, "against", "", "file containing a second response for pairwise comparison")
	judgeCmd.Flags().StringVar(&judgeReference, "reference", "", "optional reference answer file")
	judgeCmd.Flags().StringVar(&judgeRubric, "rubric", "code-review", "built-in rubric name or YAML file path")
	judgeCmd.Flags().IntVar(&judgeEnsemble, "ensemble", 0, "ensemble size (default from config)")
	judgeCmd.Flags().BoolVar(&judgeJSON, "json", false, "print the report as JSON")
	_ = judgeCmd.MarkFlagRequired("response")
}
