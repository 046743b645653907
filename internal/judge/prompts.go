package judge

import (
	"fmt"
	"strings"

	"github.com/ecohq/eco/internal/rubric"
)

// buildEvaluationPrompt structures a single-response scoring prompt. The
// per-criterion format is part of the contract: reasoning must appear
// before the score so parsing can enforce the ordering.
func buildEvaluationPrompt(response string, rub rubric.Rubric, reference string) string {
	var b strings.Builder
	b.WriteString("You are an expert evaluator. Evaluate the following response against the provided criteria.\n\n")
	b.WriteString("IMPORTANT INSTRUCTIONS:\n")
	b.WriteString("1. You MUST provide reasoning BEFORE giving any score\n")
	b.WriteString("2. Scores must be integers within the specified scale\n")
	b.WriteString("3. If you detect any safety concerns, include 'Safety: CONCERN' in your response\n\n")

	if reference != "" {
		b.WriteString("Reference Answer:\n")
		b.WriteString(reference)
		b.WriteString("\n\n")
	}

	b.WriteString("Response to Evaluate:\n")
	b.WriteString(response)
	b.WriteString("\n\nEvaluation Criteria:\n")
	for _, c := range rub.Criteria {
		fmt.Fprintf(&b, "- %s: %s (Scale: %d to %d, Weight: %.1f)\n",
			c.Name, c.Description, c.Min, c.Max, c.Weight)
	}

	b.WriteString("\nFor EACH criterion, answer in exactly this format:\n")
	b.WriteString("### <criterion name>\n")
	b.WriteString("Reasoning: <your detailed reasoning>\n")
	b.WriteString("Score: <integer within scale>\n")
	return b.String()
}

// buildPairwisePrompt structures a comparison prompt. The labels are the
// neutral "A"/"B"; callers swap which payload sits behind each label, so the
// prompt never reveals which response is physically first.
func buildPairwisePrompt(first, second string, rub rubric.Rubric) string {
	var b strings.Builder
	b.WriteString("You are an expert evaluator. Compare the following two responses.\n\n")
	b.WriteString("IMPORTANT INSTRUCTIONS:\n")
	b.WriteString("1. You MUST provide reasoning BEFORE declaring a winner\n")
	b.WriteString("2. Consider each criterion carefully\n")
	b.WriteString("3. Declare the winner as 'Winner: A', 'Winner: B', or 'Winner: tie'\n")
	b.WriteString("4. If you detect any safety concerns, include 'Safety: CONCERN' in your response\n\n")

	b.WriteString("Response A:\n")
	b.WriteString(first)
	b.WriteString("\n\nResponse B:\n")
	b.WriteString(second)
	b.WriteString("\n\nEvaluation Criteria:\n")
	for _, c := range rub.Criteria {
		fmt.Fprintf(&b, "- %s: %s (Scale: %d to %d)\n", c.Name, c.Description, c.Min, c.Max)
	}

	b.WriteString("\nProvide your comparison:\n")
	b.WriteString("Reasoning: <your detailed comparison>\n")
	b.WriteString("Winner: <A, B, or tie>\n")
	return b.String()
}
