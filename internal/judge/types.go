// Package judge provides deterministic scaffolding around probabilistic
// scoring calls: prompt structure, strict output validation, position
// debiasing, and ensemble aggregation. The model supplies judgment; this
// package supplies rigor.
package judge

import (
	"errors"
	"fmt"
	"strings"
)

// ConfidenceLabel summarizes ensemble agreement.
type ConfidenceLabel string

const (
	ConfidenceHigh     ConfidenceLabel = "high"
	ConfidenceModerate ConfidenceLabel = "moderate"
	ConfidenceLow      ConfidenceLabel = "low"
)

// Winner values for pairwise comparison.
const (
	WinnerA   = "A"
	WinnerB   = "B"
	WinnerTie = "tie"
)

// ErrAllPassesFailed is returned when no ensemble pass produced a usable
// reply. The evaluation is reported as failed, never silently scored.
var ErrAllPassesFailed = errors.New("all judge passes failed")

// CriterionResult is the aggregated outcome for one criterion.
type CriterionResult struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Report is the write-once evaluation output.
type Report struct {
	PerCriterion    map[string]CriterionResult `json:"perCriterion"`
	Total           float64                    `json:"total"`
	ConfidenceLabel ConfidenceLabel            `json:"confidenceLabel"`
	BiasChecklist   map[string]bool            `json:"biasChecklist"` // bias name -> passed
	SafetyFlag      bool                       `json:"safetyFlag"`
	NeedsReview     bool                       `json:"needsReview"`
	Invalid         []string                   `json:"invalid,omitempty"` // excluded criteria with notes

	// Pairwise mode only.
	Winner string `json:"winner,omitempty"`
	Stable bool   `json:"stable,omitempty"`
}

// Validate rejects a report whose scores lack the reasoning that must
// precede them. Invalid reports are never stored or returned to callers.
func (r Report) Validate() error {
	for name, res := range r.PerCriterion {
		if strings.TrimSpace(res.Reasoning) == "" {
			return fmt.Errorf("criterion %q has a score without reasoning", name)
		}
	}
	return nil
}

var standardBiasChecks = []string{
	"length_bias",
	"verbosity_bias",
	"style_bias",
	"anchoring_bias",
}

var pairwiseBiasChecks = []string{
	"position_bias",
	"length_bias",
	"verbosity_bias",
	"style_bias",
}

func biasChecklist(checks []string, failed map[string]bool) map[string]bool {
	out := make(map[string]bool, len(checks))
	for _, name := range checks {
		out[name] = !failed[name]
	}
	return out
}
