package judge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ecohq/eco/internal/llm"
	log "github.com/ecohq/eco/internal/logging"
	"github.com/ecohq/eco/internal/rubric"
)

// Engine runs scoring prompts through a generator and aggregates the
// results. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	generator    llm.Generator
	ensembleSize int
	passTimeout  time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnsembleSize sets the number of independent scoring passes.
func WithEnsembleSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.ensembleSize = n
		}
	}
}

// WithPassTimeout bounds each individual scoring call.
func WithPassTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.passTimeout = d
		}
	}
}

// NewEngine creates a judge engine. Defaults: 3 passes, 60s per pass.
func NewEngine(g llm.Generator, opts ...Option) *Engine {
	e := &Engine{generator: g, ensembleSize: 3, passTimeout: 60 * time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// passResult holds one completed scoring pass.
type passResult struct {
	reply  string
	scores map[string]criterionScore
}

// Evaluate scores a response against a rubric in single-response mode,
// running the configured number of independent passes concurrently. A
// reference answer, when supplied, is embedded in the prompt; pairwise
// logic is bypassed entirely in this mode.
func (e *Engine) Evaluate(ctx context.Context, response string, rub rubric.Rubric, reference string) (Report, error) {
	if err := rub.Validate(); err != nil {
		return Report{}, err
	}
	prompt := buildEvaluationPrompt(response, rub, reference)

	results := make([]*passResult, e.ensembleSize)
	var wg sync.WaitGroup
	for i := 0; i < e.ensembleSize; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.runPass(ctx, prompt, rub)
		}(i)
	}
	wg.Wait()

	var passes []*passResult
	for _, r := range results {
		if r != nil {
			passes = append(passes, r)
		}
	}
	if len(passes) == 0 {
		return Report{}, fmt.Errorf("%w: %d passes attempted", ErrAllPassesFailed, e.ensembleSize)
	}

	report := aggregate(passes, rub)
	report.BiasChecklist = biasChecklist(standardBiasChecks, nil)
	for _, p := range passes {
		if detectSafetyFlag(p.reply) {
			report.SafetyFlag = true
			report.NeedsReview = true
			break
		}
	}

	if err := report.Validate(); err != nil {
		return Report{}, fmt.Errorf("evaluation produced an invalid report: %w", err)
	}
	return report, nil
}

// runPass executes one scoring call with its own timeout. A reply whose
// criterion blocks fail validation is retried once; a pass that still
// yields nothing usable (or timed out) is excluded from the ensemble rather
// than scored as zero.
func (e *Engine) runPass(ctx context.Context, prompt string, rub rubric.Rubric) *passResult {
	for attempt := 0; attempt < 2; attempt++ {
		passCtx, cancel := context.WithTimeout(ctx, e.passTimeout)
		reply, err := e.generator.Generate(passCtx, prompt)
		cancel()
		if err != nil {
			log.Warnf("judge pass failed: %v", err)
			return nil
		}

		scores := map[string]criterionScore{}
		valid := true
		for _, c := range rub.Criteria {
			cs, err := parseCriterionScore(reply, c)
			if err != nil {
				log.Warnf("judge pass rejected (attempt %d): %v", attempt+1, err)
				valid = false
				continue
			}
			scores[c.Name] = cs
		}
		if valid || attempt == 1 {
			if len(scores) == 0 && attempt == 0 {
				continue
			}
			return &passResult{reply: reply, scores: scores}
		}
	}
	return nil
}

// aggregate combines per-pass scores into one report. For each criterion:
// strict-majority value wins; otherwise the value closest to the median.
// Agreement sets the confidence label (strict majority across passes ->
// high, repeated value without majority -> moderate, all distinct -> low);
// the report carries the weakest label across criteria.
func aggregate(passes []*passResult, rub rubric.Rubric) Report {
	report := Report{
		PerCriterion:    map[string]CriterionResult{},
		ConfidenceLabel: ConfidenceHigh,
	}

	var total float64
	for _, c := range rub.Criteria {
		var scores []int
		byValue := map[int][]string{} // score -> reasonings
		for _, p := range passes {
			if cs, ok := p.scores[c.Name]; ok {
				scores = append(scores, cs.score)
				byValue[cs.score] = append(byValue[cs.score], cs.reasoning)
			}
		}
		if len(scores) == 0 {
			report.Invalid = append(report.Invalid,
				fmt.Sprintf("%s: no valid score in any pass", c.Name))
			continue
		}

		chosen, label := vote(scores)
		report.PerCriterion[c.Name] = CriterionResult{
			Score:     chosen,
			Reasoning: byValue[chosen][0],
		}
		total += float64(chosen) * c.Weight
		if weaker(label, report.ConfidenceLabel) {
			report.ConfidenceLabel = label
		}
	}
	report.Total = total
	if len(report.PerCriterion) == 0 {
		// Nothing aggregated: every criterion failed to parse in every pass.
		report.ConfidenceLabel = ConfidenceLow
	}
	return report
}

// vote picks the aggregated score and the agreement label for one
// criterion's ensemble values.
func vote(scores []int) (int, ConfidenceLabel) {
	counts := map[int]int{}
	for _, s := range scores {
		counts[s]++
	}

	best, bestCount := 0, 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}

	if bestCount*2 > len(scores) {
		return best, ConfidenceHigh
	}
	chosen := closestToMedian(scores)
	if bestCount > 1 {
		return chosen, ConfidenceModerate
	}
	return chosen, ConfidenceLow
}

// closestToMedian returns the observed value nearest to the median,
// preferring the smaller value on a tie.
func closestToMedian(scores []int) int {
	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)
	var median float64
	n := len(sorted)
	if n%2 == 1 {
		median = float64(sorted[n/2])
	} else {
		median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}

	chosen := sorted[0]
	bestDist := math.Abs(float64(sorted[0]) - median)
	for _, v := range sorted[1:] {
		d := math.Abs(float64(v) - median)
		if d < bestDist {
			chosen, bestDist = v, d
		}
	}
	return chosen
}

var labelRank = map[ConfidenceLabel]int{
	ConfidenceLow:      0,
	ConfidenceModerate: 1,
	ConfidenceHigh:     2,
}

func weaker(a, b ConfidenceLabel) bool {
	return labelRank[a] < labelRank[b]
}
