package judge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ecohq/eco/internal/rubric"
)

// queueGenerator hands out one canned reply per call, in pop order. Safe
// for the concurrent ensemble passes; aggregation does not depend on which
// pass receives which reply.
type queueGenerator struct {
	mu      sync.Mutex
	replies []string
	errs    []error
}

func (q *queueGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(q.replies) == 0 {
		return "", errors.New("queue exhausted")
	}
	reply := q.replies[0]
	q.replies = q.replies[1:]
	return reply, nil
}

func singleCriterionRubric() rubric.Rubric {
	return rubric.Rubric{
		Name: "accuracy-only",
		Criteria: []rubric.Criterion{
			{Name: "Accuracy", Description: "factual correctness", Min: 0, Max: 10, Weight: 1.0},
		},
	}
}

func scoredReply(score int) string {
	return fmt.Sprintf("### Accuracy\nReasoning: the key claims check out.\nScore: %d\n", score)
}

func TestEvaluateMajorityScoresHigh(t *testing.T) {
	gen := &queueGenerator{replies: []string{scoredReply(7), scoredReply(7), scoredReply(5)}}
	e := NewEngine(gen, WithEnsembleSize(3))

	report, err := e.Evaluate(context.Background(), "response", singleCriterionRubric(), "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got := report.PerCriterion["Accuracy"].Score; got != 7 {
		t.Errorf("aggregated score = %d, want 7", got)
	}
	if report.ConfidenceLabel != ConfidenceHigh {
		t.Errorf("ConfidenceLabel = %s, want high", report.ConfidenceLabel)
	}
	if report.Total != 7 {
		t.Errorf("Total = %.1f, want 7", report.Total)
	}
}

func TestEvaluateAllDistinctScoresLowViaMedian(t *testing.T) {
	gen := &queueGenerator{replies: []string{scoredReply(7), scoredReply(5), scoredReply(3)}}
	e := NewEngine(gen, WithEnsembleSize(3))

	report, err := e.Evaluate(context.Background(), "response", singleCriterionRubric(), "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got := report.PerCriterion["Accuracy"].Score; got != 5 {
		t.Errorf("aggregated score = %d, want median 5", got)
	}
	if report.ConfidenceLabel != ConfidenceLow {
		t.Errorf("ConfidenceLabel = %s, want low", report.ConfidenceLabel)
	}
}

func TestEvaluateRepeatWithoutMajorityIsModerate(t *testing.T) {
	gen := &queueGenerator{replies: []string{
		scoredReply(7), scoredReply(7), scoredReply(5), scoredReply(3),
	}}
	e := NewEngine(gen, WithEnsembleSize(4))

	report, err := e.Evaluate(context.Background(), "response", singleCriterionRubric(), "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if report.ConfidenceLabel != ConfidenceModerate {
		t.Errorf("ConfidenceLabel = %s, want moderate", report.ConfidenceLabel)
	}
}

func TestEvaluateFailedPassesAreExcluded(t *testing.T) {
	gen := &queueGenerator{
		errs:    []error{errors.New("deadline exceeded"), nil, nil},
		replies: []string{scoredReply(6), scoredReply(6)},
	}
	e := NewEngine(gen, WithEnsembleSize(3))

	report, err := e.Evaluate(context.Background(), "response", singleCriterionRubric(), "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got := report.PerCriterion["Accuracy"].Score; got != 6 {
		t.Errorf("aggregated score = %d, want 6 from the surviving passes", got)
	}
}

func TestEvaluateAllPassesFailed(t *testing.T) {
	gen := &queueGenerator{errs: []error{
		errors.New("boom"), errors.New("boom"), errors.New("boom"),
	}}
	e := NewEngine(gen, WithEnsembleSize(3))

	_, err := e.Evaluate(context.Background(), "response", singleCriterionRubric(), "")
	if !errors.Is(err, ErrAllPassesFailed) {
		t.Errorf("err = %v, want ErrAllPassesFailed", err)
	}
}

func TestEvaluateNothingParsedScoresLow(t *testing.T) {
	// Two replies per pass: the unparseable first attempt triggers one retry.
	junk := "I cannot put a number on this."
	gen := &queueGenerator{replies: []string{junk, junk, junk, junk, junk, junk}}
	e := NewEngine(gen, WithEnsembleSize(3))

	report, err := e.Evaluate(context.Background(), "response", singleCriterionRubric(), "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(report.PerCriterion) != 0 {
		t.Errorf("PerCriterion has %d entries, want none", len(report.PerCriterion))
	}
	if len(report.Invalid) == 0 {
		t.Error("Invalid is empty, want the unscored criterion recorded")
	}
	if report.ConfidenceLabel != ConfidenceLow {
		t.Errorf("ConfidenceLabel = %s, want low when nothing aggregated", report.ConfidenceLabel)
	}
	if report.Total != 0 {
		t.Errorf("Total = %.1f, want 0", report.Total)
	}
}

func TestEvaluateSafetyFlagOverridesScores(t *testing.T) {
	flagged := scoredReply(9) + "\nSafety: CONCERN\n"
	gen := &queueGenerator{replies: []string{flagged, scoredReply(9), scoredReply(9)}}
	e := NewEngine(gen, WithEnsembleSize(3))

	report, err := e.Evaluate(context.Background(), "response", singleCriterionRubric(), "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !report.SafetyFlag {
		t.Error("SafetyFlag not set despite a flagged pass")
	}
	if !report.NeedsReview {
		t.Error("NeedsReview not set despite a flagged pass")
	}
	if got := report.PerCriterion["Accuracy"].Score; got != 9 {
		t.Errorf("score = %d, want 9; the flag must not alter scores", got)
	}
}

func TestEvaluateWeightedTotal(t *testing.T) {
	rub := rubric.Rubric{
		Name: "weighted",
		Criteria: []rubric.Criterion{
			{Name: "Accuracy", Description: "d", Min: 0, Max: 10, Weight: 2.0},
			{Name: "Style", Description: "d", Min: 0, Max: 10, Weight: 0.5},
		},
	}
	reply := "### Accuracy\nReasoning: solid.\nScore: 8\n### Style\nReasoning: plain.\nScore: 4\n"
	gen := &queueGenerator{replies: []string{reply}}
	e := NewEngine(gen, WithEnsembleSize(1))

	report, err := e.Evaluate(context.Background(), "response", rub, "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if want := 8*2.0 + 4*0.5; report.Total != want {
		t.Errorf("Total = %.1f, want %.1f", report.Total, want)
	}
}

func TestReportValidateRejectsScoreWithoutReasoning(t *testing.T) {
	report := Report{PerCriterion: map[string]CriterionResult{
		"Accuracy": {Score: 7, Reasoning: "  "},
	}}
	if err := report.Validate(); err == nil {
		t.Error("Validate accepted a score without reasoning")
	}
}

func TestVote(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   int
		label  ConfidenceLabel
	}{
		{"strict majority", []int{7, 7, 5}, 7, ConfidenceHigh},
		{"unanimous", []int{4, 4, 4}, 4, ConfidenceHigh},
		{"all distinct", []int{7, 5, 3}, 5, ConfidenceLow},
		{"repeat without majority", []int{7, 7, 5, 3}, 5, ConfidenceModerate},
		{"single pass", []int{6}, 6, ConfidenceHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, label := vote(tt.scores)
			if got != tt.want || label != tt.label {
				t.Errorf("vote(%v) = (%d, %s), want (%d, %s)",
					tt.scores, got, label, tt.want, tt.label)
			}
		})
	}
}

func TestClosestToMedianPrefersSmallerOnTie(t *testing.T) {
	if got := closestToMedian([]int{3, 5, 7, 7}); got != 5 {
		t.Errorf("closestToMedian = %d, want 5", got)
	}
}
