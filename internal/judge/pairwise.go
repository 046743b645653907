package judge

import (
	"context"
	"fmt"
	"sync"

	log "github.com/ecohq/eco/internal/logging"
	"github.com/ecohq/eco/internal/rubric"
)

// PairwiseCompare judges two responses with position debiasing: the full
// comparison runs twice, once in (A, B) order and once swapped, both
// passes concurrent. If the two orderings disagree on the winner, the
// result is flagged unstable and defaults to tie rather than guessing.
func (e *Engine) PairwiseCompare(ctx context.Context, responseA, responseB string, rub rubric.Rubric) (Report, error) {
	if err := rub.Validate(); err != nil {
		return Report{}, err
	}

	prompts := [2]string{
		buildPairwisePrompt(responseA, responseB, rub),
		buildPairwisePrompt(responseB, responseA, rub),
	}

	var replies [2]string
	var errs [2]error
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			passCtx, cancel := context.WithTimeout(ctx, e.passTimeout)
			defer cancel()
			replies[i], errs[i] = e.generator.Generate(passCtx, prompts[i])
		}(i)
	}
	wg.Wait()

	if errs[0] != nil && errs[1] != nil {
		return Report{}, fmt.Errorf("%w: both pairwise orderings failed: %v; %v",
			ErrAllPassesFailed, errs[0], errs[1])
	}

	report := Report{
		PerCriterion: map[string]CriterionResult{},
		Winner:       WinnerTie,
	}
	for i := 0; i < 2; i++ {
		if errs[i] == nil && detectSafetyFlag(replies[i]) {
			report.SafetyFlag = true
			report.NeedsReview = true
		}
	}

	// With only one usable ordering, position bias cannot be checked.
	if errs[0] != nil || errs[1] != nil {
		log.Warnf("pairwise ordering failed, cannot verify stability: %v%v", errs[0], errs[1])
		report.Stable = false
		report.ConfidenceLabel = ConfidenceLow
		report.BiasChecklist = biasChecklist(pairwiseBiasChecks, map[string]bool{"position_bias": true})
		return report, nil
	}

	winnerOriginal := parseWinner(replies[0])
	winnerSwapped := translateSwapped(parseWinner(replies[1]))

	if winnerOriginal == winnerSwapped {
		report.Winner = winnerOriginal
		report.Stable = true
		report.ConfidenceLabel = ConfidenceHigh
		report.BiasChecklist = biasChecklist(pairwiseBiasChecks, nil)
		return report, nil
	}

	// Swapping changed the winner: position bias is exposed, not resolved.
	log.Warnf("position bias detected: %s vs %s after swap", winnerOriginal, winnerSwapped)
	report.Winner = WinnerTie
	report.Stable = false
	report.ConfidenceLabel = ConfidenceLow
	report.BiasChecklist = biasChecklist(pairwiseBiasChecks, map[string]bool{"position_bias": true})
	return report, nil
}

// translateSwapped maps a winner declared under swapped operands back to
// the original labels.
func translateSwapped(w string) string {
	switch w {
	case WinnerA:
		return WinnerB
	case WinnerB:
		return WinnerA
	default:
		return WinnerTie
	}
}
